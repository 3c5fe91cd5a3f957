package dto

// UploadDocumentResponse summarizes one ingested reference document.
type UploadDocumentResponse struct {
	Owner  string `json:"owner"`
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
}

// DocumentSummaryResponse is one (owner, title) aggregate in a session.
type DocumentSummaryResponse struct {
	Title  string `json:"title"`
	Owner  string `json:"owner"`
	Chunks int    `json:"chunks"`
}

type RetrieveRequest struct {
	Query         string   `json:"query" validate:"required"`
	AllowedOwners []string `json:"allowed_owners"`
	K             int      `json:"k"`
}

type RetrievedHitResponse struct {
	Title      string  `json:"title"`
	Owner      string  `json:"owner"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Snippet    string  `json:"snippet"`
	Score      float32 `json:"score"`
}

// TurnMessage is one transcript entry used to locate the live claim.
type TurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TacticRequest asks the adaptive engine how the current speaker should use
// the already-retrieved sources. DefaultMode and CiteStyle come from the
// speaker's persona configuration upstream.
type TacticRequest struct {
	Speaker     string                 `json:"speaker" validate:"required"`
	Topic       string                 `json:"topic"`
	History     []TurnMessage          `json:"history"`
	Sources     []RetrievedHitResponse `json:"sources"`
	DefaultMode string                 `json:"default_mode" validate:"required"`
	CiteStyle   string                 `json:"cite_style"`
}

type TacticResponse struct {
	Mode      string `json:"mode"`
	CiteStyle string `json:"cite_style"`
}
