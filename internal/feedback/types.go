package feedback

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Rating is an optional integer rating. The zero value means "no rating".
type Rating struct {
	Value int
	Valid bool
}

func Some(v int) Rating { return Rating{Value: v, Valid: true} }

// ParseRating parses s as an integer rating. Anything that is not an integer
// yields no rating rather than an error.
func ParseRating(s string) Rating {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Rating{}
	}
	return Some(n)
}

func (r Rating) String() string {
	if !r.Valid {
		return ""
	}
	return strconv.Itoa(r.Value)
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Rating{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Some(n)
	return nil
}

// Record is one feedback entry. Source is a page identifier, or empty when
// the feedback arrived as a chat command.
type Record struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
	Rating    Rating `json:"rating"`
	Comment   string `json:"comment"`
	Source    string `json:"page_url"`
}
