package models

// UploadClaims are the JWT claims an upload request is authorized with
type UploadClaims struct {
	Issuer    string `json:"iss"` // optional
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`

	// Where the asset goes; empty values fall back to the default volume and the root folder
	Volume string `json:"volume,omitempty"`
	Folder string `json:"folder,omitempty"`
}
