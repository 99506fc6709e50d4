package eventbrite

// Raw response shapes for the Eventbrite search API. Venue ordinates
// arrive as strings and venues themselves are optional, which is why
// everything below is pointer-heavy.

type searchResponse struct {
	Events     []rawEvent `json:"events"`
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	PageCount  int  `json:"page_count"`
	PageNumber int  `json:"page_number"`
	HasMore    bool `json:"has_more_items"`
}

type rawEvent struct {
	ID          string     `json:"id"`
	Name        *textField `json:"name"`
	Description *textField `json:"description"`
	Start       *whenField `json:"start"`
	End         *whenField `json:"end"`
	URL         *string    `json:"url"`
	IsFree      *bool      `json:"is_free"`
	Logo        *logo      `json:"logo"`
	Venue       *venue     `json:"venue"`
	Organizer   *organizer `json:"organizer"`
	Category    *category  `json:"category"`
}

type textField struct {
	Text string `json:"text"`
}

type whenField struct {
	UTC string `json:"utc"`
}

type logo struct {
	URL string `json:"url"`
}

type venue struct {
	Name      *string  `json:"name"`
	Latitude  *string  `json:"latitude"`
	Longitude *string  `json:"longitude"`
	Address   *address `json:"address"`
}

type address struct {
	Display string `json:"localized_address_display"`
}

type organizer struct {
	Name string `json:"name"`
}

type category struct {
	Name string `json:"name"`
}
