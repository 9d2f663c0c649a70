package http

import (
	"encoding/json"
	"errors"
	"github.com/go-kit/log"
	"go-price-converter/convert"
	"go-price-converter/domain"
	"go-price-converter/rates"
	"go-price-converter/ratesource"
	"net/http"
	"time"
)

// Server dependencies for HTTP Server functions
type Server struct {
	// amounts converts single amounts, it holds no document state
	amounts  convert.Service
	sessions *sessions
	rates    ratesource.Service
	defaults domain.Preferences
	logger   log.Logger
	router   http.ServeMux
}

// Option configures a Server
type Option func(*Server)

// WithSessionLimits forgets documents idle for longer than ttl and keeps at most max of them
// open, dropping the least recently used. Zero disables either limit.
func WithSessionLimits(ttl time.Duration, max int) Option {
	return func(s *Server) {
		s.sessions.ttl = ttl
		s.sessions.max = max
	}
}

// NewServer routes the conversion API. Each document gets its own Service from factory;
// requests that do not carry a rate table use rs.
func NewServer(factory convert.Factory, rs ratesource.Service, defaults domain.Preferences, logger log.Logger, opts ...Option) *Server {
	server := &Server{
		amounts:  factory(),
		sessions: newSessions(factory),
		rates:    rs,
		defaults: defaults,
		logger:   logger,
		router:   http.ServeMux{},
	}
	for _, opt := range opts {
		opt(server)
	}
	server.routes()
	return server
}

func (s *Server) routes() {
	s.router.Handle("POST /api/convert", s.convert())
	s.router.Handle("POST /api/scan", s.scan())
	s.router.Handle("POST /api/restore", s.restore())
	s.router.Handle("POST /api/restore-all", s.restoreAll())
	s.router.Handle("GET /api/count", s.count())
	s.router.Handle("GET /api/quote", s.quote())
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(rw, r)
}

// convert produces HTTP handler for single amount conversions
func (s *Server) convert() http.HandlerFunc {

	// request for unmarshalling JSON requests posted by clients
	type request struct {
		FromCurrency domain.Currency
		ToCurrency   domain.Currency
		Amount       domain.Amount
		ShowOriginal bool
		Locale       string
	}

	// response for marshalling JSON responses to return to clients
	type response struct {
		Exchange domain.Rate   `json:"exchange"`
		Amount   domain.Amount `json:"amount"`
		Original domain.Amount `json:"original"`
		Rendered string        `json:"rendered"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}

		table, err := s.rates.Rates(r.Context())
		if err != nil {
			s.fail(rw, http.StatusBadGateway, "exchange rates unavailable", err)
			return
		}

		style := domain.Style{ShowOriginal: request.ShowOriginal, Locale: request.Locale}
		result, err := s.amounts.Convert(request.Amount, request.FromCurrency, request.ToCurrency, table, style)
		if err != nil {
			s.fail(rw, http.StatusBadRequest, "failed conversion", err)
			return
		}

		s.encode(rw, http.StatusOK, response{
			Exchange: result.Rate,
			Amount:   result.Converted,
			Original: request.Amount,
			Rendered: result.Rendered,
		})
	}
}

// scan produces HTTP handler converting the prices of a batch of spans
func (s *Server) scan() http.HandlerFunc {

	type request struct {
		DocumentID  string             `json:"documentId"`
		Spans       []domain.Span      `json:"spans"`
		Preferences domain.Preferences `json:"preferences"`

		// Rates replaces the rate source for this batch
		Rates domain.Rates `json:"rates"`
	}

	type response struct {
		DocumentID string        `json:"documentId"`
		Report     domain.Report `json:"report"`
		Live       int           `json:"live"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		// supplied preferences override the defaults field by field
		request := request{Preferences: s.defaults}
		if !s.decode(rw, r, &request) {
			return
		}
		prefs := request.Preferences

		table := request.Rates
		if len(table) == 0 {
			var err error
			table, err = s.rates.Rates(r.Context())
			if err != nil {
				// every price is skipped as unavailable, the batch still completes
				s.logger.Log("msg", "scanning without rates", "err", err)
				table = domain.Rates{}
			}
		}

		id, sess := s.sessions.open(request.DocumentID)
		sess.Lock()
		report := sess.service.ScanAndConvert(request.Spans, table, prefs)
		live := sess.service.LiveConversionCount()
		sess.Unlock()

		s.encode(rw, http.StatusOK, response{
			DocumentID: id,
			Report:     report,
			Live:       live,
		})
	}
}

// restore produces HTTP handler restoring one span
func (s *Server) restore() http.HandlerFunc {

	type request struct {
		DocumentID string        `json:"documentId"`
		SpanID     domain.SpanID `json:"spanId"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}

		sess, ok := s.sessions.find(request.DocumentID)
		if !ok {
			s.fail(rw, http.StatusNotFound, "unknown document", nil)
			return
		}

		sess.Lock()
		original, err := sess.service.Restore(request.SpanID)
		sess.Unlock()
		if errors.Is(err, domain.ErrNotFound) {
			s.fail(rw, http.StatusNotFound, "span not converted", err)
			return
		}

		s.encode(rw, http.StatusOK, domain.Restored{SpanID: request.SpanID, Original: original})
	}
}

// restoreAll produces HTTP handler restoring every span of a document and closing it
func (s *Server) restoreAll() http.HandlerFunc {

	type request struct {
		DocumentID string `json:"documentId"`
	}

	type response struct {
		Restored []domain.Restored `json:"restored"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		var request request
		if !s.decode(rw, r, &request) {
			return
		}

		restored := []domain.Restored{}
		if sess, ok := s.sessions.find(request.DocumentID); ok {
			sess.Lock()
			restored = sess.service.RestoreAll()
			sess.Unlock()
			s.sessions.close(request.DocumentID)
		}

		s.encode(rw, http.StatusOK, response{Restored: restored})
	}
}

// count produces HTTP handler reporting the live conversions of a document
func (s *Server) count() http.HandlerFunc {

	type response struct {
		Count int `json:"count"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		count := 0
		if sess, ok := s.sessions.find(r.URL.Query().Get("documentId")); ok {
			sess.Lock()
			count = sess.service.LiveConversionCount()
			sess.Unlock()
		}

		s.encode(rw, http.StatusOK, response{Count: count})
	}
}

// quote produces HTTP handler rendering the rate between two currencies
func (s *Server) quote() http.HandlerFunc {

	type response struct {
		Quote string      `json:"quote"`
		Rate  domain.Rate `json:"rate,omitempty"`
	}

	return func(rw http.ResponseWriter, r *http.Request) {
		from := domain.Currency(r.URL.Query().Get("from"))
		to := domain.Currency(r.URL.Query().Get("to"))
		if from == domain.Unknown || to == domain.Unknown {
			s.fail(rw, http.StatusBadRequest, "from and to are required", nil)
			return
		}

		table, err := s.rates.Rates(r.Context())
		if err != nil {
			s.logger.Log("msg", "quoting without rates", "err", err)
			table = domain.Rates{}
		}

		rate, _ := rates.Rate(from, to, table)
		s.encode(rw, http.StatusOK, response{
			Quote: rates.Quote(from, to, table),
			Rate:  rate,
		})
	}
}

// decode the JSON body of r into v, answering 400 when it cannot
func (s *Server) decode(rw http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(rw, http.StatusBadRequest, "invalid json", err)
		return false
	}
	return true
}

func (s *Server) encode(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		s.logger.Log("msg", "failed json encoding", "err", err)
	}
}

func (s *Server) fail(rw http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		s.logger.Log("msg", msg, "status", status, "err", err)
	}

	type response struct {
		Error string `json:"error"`
	}
	s.encode(rw, status, response{Error: msg})
}
