package domain

// Country is static reference data, not a persisted entity.
type Country struct {
	ID     string
	Name   string
	Colour uint32
}

var Countries = []Country{
	{ID: "AFG", Name: "Afghanistan", Colour: 0x00563F},
	{ID: "ALB", Name: "Albania", Colour: 0xE41A1C},
	{ID: "DZA", Name: "Algeria", Colour: 0x006233},
	{ID: "ARG", Name: "Argentina", Colour: 0x74ACDF},
	{ID: "AUS", Name: "Australia", Colour: 0xFFD700},
	{ID: "AUT", Name: "Austria", Colour: 0xED2939},
	{ID: "BRA", Name: "Brazil", Colour: 0x009C3B},
	{ID: "BGD", Name: "Bangladesh", Colour: 0x006A4E},
	{ID: "CAN", Name: "Canada", Colour: 0xFF0000},
	{ID: "CHN", Name: "China", Colour: 0xFFDE00},
	{ID: "COL", Name: "Colombia", Colour: 0xFFD700},
	{ID: "CUB", Name: "Cuba", Colour: 0x002A8F},
	{ID: "DNK", Name: "Denmark", Colour: 0xC60C30},
	{ID: "EGY", Name: "Egypt", Colour: 0x000000},
	{ID: "FRA", Name: "France", Colour: 0x0055A4},
	{ID: "DEU", Name: "Germany", Colour: 0x000000},
	{ID: "GRC", Name: "Greece", Colour: 0x0D5EAF},
	{ID: "IND", Name: "India", Colour: 0xFF9933},
	{ID: "IDN", Name: "Indonesia", Colour: 0xFF0000},
	{ID: "IRL", Name: "Ireland", Colour: 0x169B62},
	{ID: "ISR", Name: "Israel", Colour: 0x0038B8},
	{ID: "ITA", Name: "Italy", Colour: 0x009246},
	{ID: "JPN", Name: "Japan", Colour: 0xBC002D},
	{ID: "MEX", Name: "Mexico", Colour: 0x006341},
	{ID: "NLD", Name: "Netherlands", Colour: 0x21468B},
	{ID: "NZL", Name: "New Zealand", Colour: 0x00247D},
	{ID: "NOR", Name: "Norway", Colour: 0xEF2B2D},
	{ID: "POL", Name: "Poland", Colour: 0xDC143C},
	{ID: "PRT", Name: "Portugal", Colour: 0x006600},
	{ID: "ESP", Name: "Spain", Colour: 0xAA151B},
	{ID: "CHE", Name: "Switzerland", Colour: 0xFF0000},
	{ID: "RUS", Name: "Russia", Colour: 0xB22234},
	{ID: "BEL", Name: "Belgium", Colour: 0x000000},
	{ID: "USA", Name: "United States", Colour: 0x0039A6},
	{ID: "SWE", Name: "Sweden", Colour: 0xFFD700},
	{ID: "FIN", Name: "Finland", Colour: 0x003580},
	{ID: "JAM", Name: "Jamaica", Colour: 0x007847},
	{ID: "ROU", Name: "Romania", Colour: 0xFFD700},
	{ID: "TUR", Name: "Turkey", Colour: 0xE30A17},
	{ID: "NGA", Name: "Nigeria", Colour: 0x008753},
}

// ValidCountry reports membership of the closed reference set.
func ValidCountry(id string) bool {
	for _, c := range Countries {
		if c.ID == id {
			return true
		}
	}
	return false
}
