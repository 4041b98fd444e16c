package constants

const (
	MaxGuesses = 6
	WordLength = 5
)

const (
	SessionCookieName = "session_id"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
	RequestIDHeader   = "X-Request-Id"
)

const (
	RouteHealthz      = "/healthz"
	RouteMetrics      = "/metrics"
	RouteNewGame      = "/api/game/new"
	RouteGuess        = "/api/game/guess"
	RouteGameState    = "/api/game/state"
	RouteHint         = "/api/game/hint"
	RouteCoach        = "/api/game/coach"
	RouteFeedback     = "/api/game/feedback"
	RouteRetryWord    = "/api/game/retry"
	RouteStaticPrefix = "/static/"
)

// Rate limit table names. Each protected endpoint is looked up by one of these.
const (
	LimitWord     = "word"
	LimitHint     = "hint"
	LimitCoach    = "coach"
	LimitFeedback = "feedback"
	LimitGuess    = "guess"
)

const (
	ErrorCodeGameOver        = "game_over"
	ErrorCodeInvalidLength   = "invalid_length"
	ErrorCodeInvalidGuess    = "invalid_guess"
	ErrorCodeNoMoreGuesses   = "no_more_guesses"
	ErrorCodeWordNotAccepted = "word_not_accepted"
	ErrorCodeDuplicateGuess  = "duplicate_guess"
	ErrorCodeGameNotOver     = "game_not_over"
	ErrorCodeNoGuesses       = "no_guesses"
	ErrorCodeNoActiveGame    = "no_active_game"
	ErrorCodeBadRequest      = "bad_request"
	ErrorCodeRateLimited     = "rate_limit_exceeded"
	ErrorCodeTooManyRequests = "too_many_requests"
	ErrorCodeInvalidCSRF     = "invalid_csrf_token"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)
