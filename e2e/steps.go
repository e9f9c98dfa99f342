//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(sc *godog.ScenarioContext, tc *TestContext) {
	// Background
	sc.Step(`^the certifier is running$`, tc.certifierIsRunning)

	// Issuance
	sc.Step(`^I issue a "([^"]*)" certificate for subject "([^"]*)"$`, tc.issueCertificate)
	sc.Step(`^I issue a certificate with body:$`, tc.issueWithBody)
	sc.Step(`^I save the issued certificate$`, tc.saveIssuedCertificate)

	// Revocation
	sc.Step(`^I revoke the saved certificate$`, tc.revokeSaved)
	sc.Step(`^I revoke certificate "([^"]*)"$`, tc.revokeSerial)
	sc.Step(`^I save the revocation transaction$`, tc.saveRevocation)

	// Status
	sc.Step(`^I check the revocation status of the saved certificate$`, tc.checkSavedStatus)
	sc.Step(`^I check the revocation status of outpoint "([^"]*)"$`, tc.checkStatus)
	sc.Step(`^the certificate should (not )?be revoked$`, tc.shouldBeRevoked)

	// Generic requests and assertions
	sc.Step(`^I GET "([^"]*)"$`, tc.GET)
	sc.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	sc.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	sc.Step(`^the response field "([^"]*)" should not be empty$`, tc.responseFieldNotEmpty)
}

func (tc *TestContext) certifierIsRunning(context.Context) error {
	if err := tc.GET("/health/live"); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(200)
}

func (tc *TestContext) issueCertificate(ctx context.Context, certType, subject string) error {
	return tc.POST("/certificates", map[string]any{
		"subject": subject,
		"type":    certType,
		"fields":  map[string]string{"name": "Alice"},
	})
}

func (tc *TestContext) issueWithBody(ctx context.Context, doc *godog.DocString) error {
	req, err := tc.rawRequest("/certificates", doc.Content)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) saveIssuedCertificate(context.Context) error {
	if err := tc.responseStatusShouldBe(201); err != nil {
		return err
	}
	serial, err := tc.StringField("certificate.serialNumber")
	if err != nil {
		return err
	}
	outpoint, err := tc.StringField("certificate.revocationOutpoint")
	if err != nil {
		return err
	}
	tc.SerialNumber, tc.Outpoint = serial, outpoint
	return nil
}

func (tc *TestContext) revokeSaved(ctx context.Context) error {
	if tc.SerialNumber == "" {
		return fmt.Errorf("no certificate has been saved")
	}
	return tc.revokeSerial(ctx, tc.SerialNumber)
}

func (tc *TestContext) revokeSerial(_ context.Context, serial string) error {
	return tc.POST("/certificates/"+url.PathEscape(serial)+"/revoke", nil)
}

func (tc *TestContext) saveRevocation(context.Context) error {
	txid, err := tc.StringField("txid")
	if err != nil {
		return err
	}
	tc.RevokeTxID = txid
	return nil
}

func (tc *TestContext) checkSavedStatus(ctx context.Context) error {
	if tc.Outpoint == "" {
		return fmt.Errorf("no certificate has been saved")
	}
	return tc.checkStatus(ctx, tc.Outpoint)
}

func (tc *TestContext) checkStatus(_ context.Context, outpoint string) error {
	return tc.GET("/revocations/" + url.PathEscape(outpoint))
}

func (tc *TestContext) shouldBeRevoked(_ context.Context, not string) error {
	if err := tc.responseStatusShouldBe(200); err != nil {
		return err
	}
	v, err := tc.Field("revoked")
	if err != nil {
		return err
	}
	want := not == ""
	if got, ok := v.(bool); !ok || got != want {
		return fmt.Errorf("expected revoked=%v, got %v", want, v)
	}
	return nil
}

func (tc *TestContext) responseStatusShouldBe(expected int) error {
	if got := tc.Status(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseShouldContain(text string) error {
	if !strings.Contains(string(tc.LastResponseBody), text) {
		return fmt.Errorf("response does not contain %q: %s", text, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(field, expected string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (tc *TestContext) responseFieldNotEmpty(field string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if fmt.Sprint(v) == "" {
		return fmt.Errorf("field %s is empty", field)
	}
	return nil
}
