package domain

// Word is an entry in the spelling word bank.
type Word struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Tier int    `json:"tier"`
}
