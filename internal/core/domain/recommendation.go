package domain

// RecommendedTrack is one ranked entry in a recommendation. Rank is 1-based
// output order. Similarity = 1 - Distance under cosine distance.
type RecommendedTrack struct {
	Rank       int
	Track      Track
	Similarity float64
	Distance   float64
}

// Recommendation is the ordered result of a seed query. Seeds never appear
// among Items.
type Recommendation struct {
	Seeds []Track
	Items []RecommendedTrack
}

// Match is a fuzzy-search hit with its confidence score in [0, 1].
type Match struct {
	Track Track
	Score float64
}
