package model

// PersistedState is the opaque pane-state blob round-tripped through
// load_app_state/save_app_state. The core does not interpret it: load
// returns it exactly as it was saved, without checking the paths.
type PersistedState struct {
	LeftPath           string  `json:"leftPath"`
	RightPath          string  `json:"rightPath"`
	LeftSelectedIndex  int     `json:"leftSelectedIndex"`
	LeftScrollTop      float64 `json:"leftScrollTop"`
	RightSelectedIndex int     `json:"rightSelectedIndex"`
	RightScrollTop     float64 `json:"rightScrollTop"`
	LeftShowHidden     bool    `json:"leftShowHidden"`
	RightShowHidden    bool    `json:"rightShowHidden"`
}
