package model

// QRToken is the small signed payload embedded in a scannable code. It is
// verified against the server secret alone, without consulting the token
// service or the datastore.
type QRToken struct {
	FarmerID  string `json:"farmer_id"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

// QRVerification is the display payload returned to a scanner after a
// successful signature check.
type QRVerification struct {
	Verified bool   `json:"verified"`
	FarmerID string `json:"farmer_id"`
	Name     string `json:"name"`
	District string `json:"district"`
	Province string `json:"province"`
}
