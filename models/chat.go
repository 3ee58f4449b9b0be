package models

// AskRequest is the body of POST /ask and POST /chat.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse carries the generated answer.
type AskResponse struct {
	Answer string `json:"answer"`
}
