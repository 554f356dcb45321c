package notify

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const unknownInteractionCode = 10062

type Kind int

const (
	Other Kind = iota
	// Stale means the interaction token expired and the interaction can no
	// longer be answered.
	Stale
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Stale:
		return "stale"
	case RateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// Classify tells delivery failures caused by an expired interaction handle
// apart from rate limiting and everything else.
func Classify(err error) Kind {
	if err == nil {
		return Other
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == unknownInteractionCode {
			return Stale
		}
		if restErr.Response != nil {
			switch restErr.Response.StatusCode {
			case http.StatusNotFound:
				body := string(restErr.ResponseBody)
				if strings.Contains(body, "Unknown interaction") || strings.Contains(body, "10062") {
					return Stale
				}
			case http.StatusTooManyRequests:
				return RateLimited
			}
		}
	}

	if strings.Contains(err.Error(), "Unknown interaction") {
		return Stale
	}

	return Other
}
