package models

// MetadataDocument is the per-entry metadata served by the upstream catalog API.
// Optional scalars are pointers so that absent and empty values stay distinct.
type MetadataDocument struct {
	StudyDesc StudyDesc `json:"study_desc"`
}

// StudyDesc holds the study description block.
type StudyDesc struct {
	TitleStatement  TitleStatement    `json:"title_statement"`
	AuthoringEntity []AuthoringEntity `json:"authoring_entity"`
	Method          Method            `json:"method"`
	StudyInfo       StudyInfo         `json:"study_info"`
}

// TitleStatement carries the study title and its upstream identifier.
type TitleStatement struct {
	IDNo  string `json:"idno"`
	Title string `json:"title"`
}

// AuthoringEntity is an organization credited with the study.
type AuthoringEntity struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// StudyInfo describes scope, coverage and collection dates of a study.
type StudyInfo struct {
	DataKind     *string    `json:"data_kind"`
	Universe     *string    `json:"universe"`
	AnalysisUnit *string    `json:"analysis_unit"`
	Abstract     string     `json:"abstract"`
	Nation       []Nation   `json:"nation"`
	Topics       []Topic    `json:"topics"`
	Keywords     []Keyword  `json:"keywords"`
	CollDates    []CollDate `json:"coll_dates"`
}

// Nation is one country covered by a study.
type Nation struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Topic is a topic classification phrase.
type Topic struct {
	Topic string `json:"topic"`
	Vocab string `json:"vocab,omitempty"`
}

// Keyword is a free-text keyword phrase.
type Keyword struct {
	Keyword string `json:"keyword"`
}

// CollDate is a data collection period, with free-text bounds.
type CollDate struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Cycle string `json:"cycle,omitempty"`
}

// Method holds methodology details.
type Method struct {
	DataCollection DataCollection `json:"data_collection"`
}

// DataCollection describes how the data was collected.
type DataCollection struct {
	SamplingProcedure *string `json:"sampling_procedure"`
	CollMode          *string `json:"coll_mode"`
}
