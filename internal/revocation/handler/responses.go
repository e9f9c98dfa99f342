package handler

import "certifier/internal/revocation/models"

type IssueResponse struct {
	Certificate *models.Certificate `json:"certificate"`
	TxID        string              `json:"txid"`
}

type RevokeResponse struct {
	TxID string `json:"txid"`
}

type StatusResponse struct {
	Outpoint string `json:"outpoint"`
	Revoked  bool   `json:"revoked"`
}
