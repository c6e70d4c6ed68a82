package model

// SummaryVariant selects the output style of a generated summary.
type SummaryVariant string

const (
	VariantTakeaway  SummaryVariant = "ts"
	VariantNarrative SummaryVariant = "ns"
	VariantBullets   SummaryVariant = "bs"
)

// Valid reports whether v is one of the supported summary variants.
func (v SummaryVariant) Valid() bool {
	switch v {
	case VariantTakeaway, VariantNarrative, VariantBullets:
		return true
	}
	return false
}

// Platform identifies the podcast platform a URL belongs to.
type Platform string

const (
	PlatformApple   Platform = "apple"
	PlatformSpotify Platform = "spotify"
	PlatformUnknown Platform = "unknown"
)
