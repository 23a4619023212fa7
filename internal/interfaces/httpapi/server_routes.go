package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/fields", handler.ListFields)
	mux.HandleFunc("GET /v1/fields/{fieldID}", handler.GetField)
	mux.HandleFunc("GET /v1/fields/{fieldID}/bookings", handler.ListFieldBookings)
	mux.HandleFunc("GET /v1/teams/{teamID}", handler.GetTeam)
	mux.HandleFunc("GET /v1/teams/{teamID}/members", handler.ListTeamMembers)
	mux.HandleFunc("GET /v1/teams/{teamID}/bookings", handler.ListTeamBookings)
	mux.HandleFunc("GET /v1/teams/{teamID}/ratings", handler.GetTeamRatingSummary)
	mux.HandleFunc("GET /v1/bookings/{bookingID}", handler.GetBooking)
	mux.HandleFunc("GET /v1/bookings/{bookingID}/result", handler.GetMatchResult)
	mux.HandleFunc("GET /v1/match-requests", handler.ListOpenMatchRequests)
	mux.HandleFunc("GET /v1/match-requests/{requestID}", handler.GetMatchRequest)
	mux.HandleFunc("GET /v1/match-requests/{requestID}/challenges", handler.ListChallenges)
}

func registerActorRoutes(mux *http.ServeMux, handler *Handler) {
	mux.Handle("POST /v1/fields", RequireActor(http.HandlerFunc(handler.CreateField)))
	mux.Handle("PATCH /v1/fields/{fieldID}", RequireActor(http.HandlerFunc(handler.UpdateField)))

	mux.Handle("POST /v1/teams", RequireActor(http.HandlerFunc(handler.CreateTeam)))
	mux.Handle("POST /v1/teams/{teamID}/members", RequireActor(http.HandlerFunc(handler.AddTeamMember)))
	mux.Handle("DELETE /v1/teams/{teamID}/members/{userID}", RequireActor(http.HandlerFunc(handler.RemoveTeamMember)))
	mux.Handle("DELETE /v1/teams/{teamID}", RequireActor(http.HandlerFunc(handler.DisbandTeam)))

	mux.Handle("POST /v1/bookings", RequireActor(http.HandlerFunc(handler.CreateBooking)))
	mux.Handle("PATCH /v1/bookings/{bookingID}/status", RequireActor(http.HandlerFunc(handler.UpdateBookingStatus)))
	mux.Handle("POST /v1/bookings/{bookingID}/payment", RequireActor(http.HandlerFunc(handler.MarkBookingPaid)))
	mux.Handle("POST /v1/bookings/{bookingID}/result", RequireActor(http.HandlerFunc(handler.RecordMatchResult)))
	mux.Handle("POST /v1/bookings/{bookingID}/ratings", RequireActor(http.HandlerFunc(handler.RateOpponent)))

	mux.Handle("POST /v1/match-requests", RequireActor(http.HandlerFunc(handler.CreateMatchRequest)))
	mux.Handle("DELETE /v1/match-requests/{requestID}", RequireActor(http.HandlerFunc(handler.CancelMatchRequest)))
	mux.Handle("POST /v1/match-requests/{requestID}/challenges", RequireActor(http.HandlerFunc(handler.CreateChallenge)))
	mux.Handle("POST /v1/challenges/{challengeID}/accept", RequireActor(http.HandlerFunc(handler.AcceptChallenge)))
	mux.Handle("POST /v1/challenges/{challengeID}/decline", RequireActor(http.HandlerFunc(handler.DeclineChallenge)))
	mux.Handle("POST /v1/challenges/{challengeID}/withdraw", RequireActor(http.HandlerFunc(handler.WithdrawChallenge)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/expire-requests", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunExpireRequestsJob)))
}
