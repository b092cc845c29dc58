package domain

// ProductSummary is the corpus-facing product shape. ImageHash links the
// product to its embedding record; empty means the product was registered
// without an image.
type ProductSummary struct {
	ID        string
	Name      string
	Category  string
	ImageHash string
	Price     float64
}

// SimilarityResult is one ranked similarity hit. Ephemeral, never persisted.
type SimilarityResult struct {
	Product    ProductSummary
	Similarity float64
}
