package model

type Notification struct {
	ID        string `json:"id"`
	Recipient string `json:"userId"`
	Message   string `json:"message"`
	FileLink  string `json:"fileLink"`
	Read      bool   `json:"read"`
	Ctime     int64  `json:"createdAt"`
}
