package google

// Raw response shapes for the Places API. Optional scalars are
// pointers so absent fields survive normalization as unknown rather
// than zero.

type searchResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
}

type placeResult struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Vicinity         *string       `json:"vicinity"`
	FormattedAddress *string       `json:"formatted_address"`
	Geometry         *geometry     `json:"geometry"`
	Rating           *float64      `json:"rating"`
	UserRatingsTotal *int          `json:"user_ratings_total"`
	PriceLevel       *int          `json:"price_level"`
	Types            []string      `json:"types"`
	Photos           []photoRef    `json:"photos"`
	OpeningHours     *openingHours `json:"opening_hours"`
	Website          *string       `json:"website"`
	PhoneNumber      *string       `json:"formatted_phone_number"`
	EditorialSummary *summary      `json:"editorial_summary"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type photoRef struct {
	PhotoReference string `json:"photo_reference"`
}

type openingHours struct {
	Periods []period `json:"periods"`
}

type period struct {
	Open  *dayTime `json:"open"`
	Close *dayTime `json:"close"`
}

type dayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type summary struct {
	Overview string `json:"overview"`
}
