package metadomain

// InsightsPage é uma página da listagem de insights da API do Meta.
// O cursor de paginação é opaco: seguimos paging.next até acabar.
type InsightsPage struct {
	Data   []map[string]interface{} `json:"data"`
	Paging Paging                   `json:"paging"`
}

// Paging carrega os cursores da página.
type Paging struct {
	Next    string `json:"next"`
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
}
