package dto

// CollectRequest triggers an on-demand collection run.
type CollectRequest struct {
	Since string `json:"since"`
}

// CollectionResponse reports the outcome of a collection run.
type CollectionResponse struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	Errors int    `json:"errors"`
}
