package models

// RichListEntry is one row of the ranked balance listing. Rank is 1-based;
// ties on balance are broken by ascending address so ranking is
// deterministic.
type RichListEntry struct {
	Rank    int    `json:"rank"`
	Address string `json:"address"`
	Balance int64  `json:"balance"` // liners
}
