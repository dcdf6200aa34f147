package model

// Catalog table column names. The table schema is fixed; every constraint
// column must be one of these.
const (
	ColCompany    = "Company Name"
	ColModel      = "Model Name"
	ColProcessor  = "Processor"
	ColPrice      = "Launched Price (INR)"
	ColBattery    = "Battery Capacity (mAh)"
	ColBackCamera = "Back Camera (MP)"
	ColFrontCam   = "Front Camera (MP)"
	ColRAM        = "RAM (GB)"
	ColStorage    = "Memory (GB)"
	ColScreenSize = "Screen Size (inches)"
	ColRating     = "User Rating.1"
)

// TableSchema lists every column of the catalog table, in storage order.
// It is embedded verbatim into the intent and SQL generation prompts.
var TableSchema = []string{
	ColCompany, ColModel, ColProcessor, "Launched Year", ColRating, "User Review.1",
	"User Camera Rating", "User Battery Life Rating", "User Design Rating", "User Display Rating",
	"User Performance Rating", ColStorage, "Mobile Weight (g)", ColRAM, ColFrontCam,
	ColBackCamera, ColBattery, ColPrice, ColScreenSize,
}

// StringColumns are the columns compared case-insensitively. SQL generated
// against them must lower both sides.
var StringColumns = []string{ColCompany, ColModel, ColProcessor}

// IsStringColumn reports whether col is one of the case-insensitive columns.
func IsStringColumn(col string) bool {
	for _, c := range StringColumns {
		if c == col {
			return true
		}
	}
	return false
}
