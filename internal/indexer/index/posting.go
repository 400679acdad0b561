package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     int `json:"doc_id"`
	Frequency int `json:"tf"`
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// TermEntry is a reporting view of one term and its postings.
type TermEntry struct {
	Term     string      `json:"term"`
	DocFreq  int         `json:"df"`
	Postings PostingList `json:"postings,omitempty"`
}

type postingList struct {
	postings PostingList
	docFreq  int
}
