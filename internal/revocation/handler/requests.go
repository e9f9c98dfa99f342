package handler

import (
	"strings"

	"certifier/internal/revocation/models"
	"certifier/pkg/validation"
)

// IssueRequest is the body of POST /certificates.
type IssueRequest struct {
	Subject string            `json:"subject" validate:"required,notblank,max=512"`
	Type    string            `json:"type" validate:"required,notblank,max=256"`
	Fields  map[string]string `json:"fields" validate:"max=64,dive,keys,notblank,max=128,endkeys,max=4096"`
}

func (r *IssueRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Type = strings.TrimSpace(r.Type)
}

func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}

func (r *IssueRequest) toModel() models.IssueRequest {
	fields := make(models.Fields, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return models.IssueRequest{
		Subject: r.Subject,
		Type:    models.CertificateType(r.Type),
		Fields:  fields,
	}
}

// RevokeRequest carries the serial number taken from the path.
type RevokeRequest struct {
	SerialNumber string `json:"serial_number" validate:"required,notblank,max=128"`
}

func (r *RevokeRequest) Normalize() {
	r.SerialNumber = strings.TrimSpace(r.SerialNumber)
}

func (r *RevokeRequest) Validate() error {
	return validation.Validate(r)
}
