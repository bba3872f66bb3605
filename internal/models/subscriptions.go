package models

import (
	"net/http"
	"time"
)

// Subscription holds the billing periods booked by a user. A user has at
// most one subscription; renewals append further periods to it.
type Subscription struct {
	UserHandle string  `json:"user_handle" doc:"Handle of the subscribed user" maxLength:"20" minLength:"3" example:"jdoe"`
	Periods    Periods `json:"periods" minItems:"1" doc:"Billing periods of the subscription"`
}

// Period is a single paid interval of a subscription.
type Period struct {
	StartDate time.Time `json:"start_date" doc:"Start of the billing period" example:"2024-01-01T00:00:00Z"`
	EndDate   time.Time `json:"end_date" doc:"End of the billing period" example:"2024-12-31T23:59:59Z"`
	Amount    int       `json:"amount" minimum:"0" doc:"Amount paid for the period, in cents" example:"4900"`
}

type Periods []Period

// TotalAmount sums the amounts of all periods.
func (p Periods) TotalAmount() int {
	total := 0
	for _, period := range p {
		total += period.Amount
	}
	return total
}

// Request and Response structs for the subscription API
// The request structs must be structs with fields for the request path/query/header/cookie parameters and/or body.
// The response structs must be structs with fields for the output headers and body of the operation, if any.

// Create subscription
// POST Path: "/v1/users/{user_handle}/subscription"

type PostSubscriptionRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	Body       struct {
		Periods Periods `json:"periods" minItems:"1" doc:"Initial billing periods"`
	}
}

type UploadSubscriptionResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
	Body   struct {
		UserHandle string `json:"user_handle" doc:"Handle of the subscribed user"`
		Periods    int    `json:"periods" doc:"Number of billing periods on the subscription"`
	}
}

// Extend subscription (append a billing period, creating the subscription if absent)
// PATCH Path: "/v1/users/{user_handle}/subscription"

type PatchSubscriptionRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	Body       struct {
		Period Period `json:"period" doc:"Billing period to append"`
	}
}

// Get single subscription
// GET Path: "/v1/users/{user_handle}/subscription"

type GetSubscriptionRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
}

type GetSubscriptionResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
	Body   Subscription  `json:"subscription" doc:"Subscription of the user"`
}

// Get all subscriptions
// GET Path: "/v1/subscriptions"

type GetSubscriptionsRequest struct {
	Limit  int `json:"limit,omitempty" query:"limit" minimum:"1" maximum:"200" example:"10" default:"20" doc:"Maximum number of subscriptions to return"`
	Offset int `json:"offset,omitempty" query:"offset" minimum:"0" example:"0" default:"0" doc:"Offset into the list of subscriptions"`
}

type GetSubscriptionsResponse struct {
	Header []http.Header  `json:"header,omitempty" doc:"Response headers"`
	Body   []Subscription `json:"subscriptions" doc:"All subscriptions"`
}

// Delete subscription
// DELETE Path: "/v1/users/{user_handle}/subscription"

type DeleteSubscriptionRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
}

type DeleteSubscriptionResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
}
