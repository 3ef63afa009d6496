package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/suite"

    "github.com/iliyamo/lodging-booking/internal/config"
    "github.com/iliyamo/lodging-booking/internal/maptoken"
    "github.com/iliyamo/lodging-booking/internal/payment"
    "github.com/iliyamo/lodging-booking/internal/queue"
    "github.com/iliyamo/lodging-booking/internal/repository/memory"
    "github.com/iliyamo/lodging-booking/internal/router"
    "github.com/iliyamo/lodging-booking/internal/service"
)

type resetCapture struct {
    urls []string
}

func (r *resetCapture) SendResetEmail(_ context.Context, _, url string) error {
    r.urls = append(r.urls, url)
    return nil
}

func (r *resetCapture) SendBookingStatus(context.Context, string, queue.BookingEvent) error {
    return nil
}

type staticFetcher struct{}

func (staticFetcher) Fetch(context.Context) (string, time.Duration, error) {
    return "map-token", time.Hour, nil
}

// fakeGateway answers order creation with "order_<receipt>" and remembers
// the amounts it was asked to charge.
type fakeGateway struct {
    *httptest.Server
    amounts []int64
}

func newFakeGateway() *fakeGateway {
    g := &fakeGateway{}
    g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        var req struct {
            Amount   int64  `json:"amount"`
            Currency string `json:"currency"`
            Receipt  string `json:"receipt"`
        }
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            http.Error(w, err.Error(), http.StatusBadRequest)
            return
        }
        g.amounts = append(g.amounts, req.Amount)
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(map[string]any{
            "id": "order_" + req.Receipt, "entity": "order", "amount": req.Amount,
            "currency": req.Currency, "receipt": req.Receipt, "status": "created",
        })
    }))
    return g
}

type APISuite struct {
    suite.Suite
    e     *echo.Echo
    mails *resetCapture
    cfg   config.Config
    gw    *fakeGateway
}

func TestAPISuite(t *testing.T) {
    suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
    s.gw = newFakeGateway()
    s.cfg = config.Config{
        JWTSecret:      "test-secret",
        AccessTTLMin:   15,
        RefreshTTLDays: 7,
        BcryptCost:     4,
        PublicBaseURL:  "http://stays.test/",
        ResetTokenTTL:  time.Hour,
        AdminEmails:    []string{"admin@example.com"},
        Razorpay:       config.RazorpayConfig{KeyID: "key", KeySecret: "secret", BaseURL: s.gw.URL},
    }
    store := memory.NewDataStore()
    s.mails = &resetCapture{}
    s.e = router.New(router.Deps{
        Cfg:      s.cfg,
        Store:    store,
        Ledger:   service.NewLedger(store, nil),
        Listings: service.NewListings(store),
        Reviews:  service.NewReviews(store),
        Gateway:  payment.NewClient(s.cfg.Razorpay, s.gw.Client()),
        Maps:     maptoken.NewCache(staticFetcher{}, "map-client"),
        Mailer:   s.mails,
    })
}

func (s *APISuite) TearDownTest() {
    s.gw.Close()
}

func (s *APISuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
    var buf bytes.Buffer
    if body != nil {
        s.Require().NoError(json.NewEncoder(&buf).Encode(body))
    }
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    s.e.ServeHTTP(rec, req)
    out := map[string]any{}
    if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
        _ = json.Unmarshal(rec.Body.Bytes(), &out)
    }
    return rec, out
}

// register returns the access token, refresh token and user id.
func (s *APISuite) register(name, email string) (string, string, string) {
    rec, out := s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{
        "username": name, "email": email, "password": "hunter22",
    })
    s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
    access := out["access"].(map[string]any)["token"].(string)
    refresh := out["refresh"].(map[string]any)["token"].(string)
    id := out["user"].(map[string]any)["id"].(string)
    return access, refresh, id
}

func (s *APISuite) createListing(token string) string {
    rec, out := s.do(http.MethodPost, "/v1/listings", token, echo.Map{
        "title": "Lake cabin", "location": "Manali", "country": "India", "pricePerNight": "100.00",
    })
    s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
    return out["id"].(string)
}

func (s *APISuite) TestHealth() {
    rec, _ := s.do(http.MethodGet, "/healthz", "", nil)
    s.Equal(http.StatusOK, rec.Code)
    rec, out := s.do(http.MethodGet, "/readyz", "", nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("ready", out["status"])
    s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestAuthFlow() {
    access, refresh, id := s.register("alice", " Alice@Example.com ")

    rec, out := s.do(http.MethodGet, "/v1/me", access, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Equal(id, out["id"])
    s.Equal("alice@example.com", out["email"])
    s.Equal("USER", out["role"])
    s.NotContains(rec.Body.String(), "password")

    rec, out = s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{
        "username": "alice2", "email": "alice@example.com", "password": "hunter22",
    })
    s.Equal(http.StatusConflict, rec.Code)
    s.Equal("conflict", out["error"])

    rec, _ = s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "alice@example.com", "password": "wrong"})
    s.Equal(http.StatusUnauthorized, rec.Code)
    rec, _ = s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "alice@example.com", "password": "hunter22"})
    s.Equal(http.StatusOK, rec.Code)

    rec, out = s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refreshToken": refresh})
    s.Require().Equal(http.StatusOK, rec.Code)
    rotated := out["refresh"].(map[string]any)["token"].(string)

    // the old refresh token was revoked by the rotation
    rec, _ = s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refreshToken": refresh})
    s.Equal(http.StatusUnauthorized, rec.Code)

    rec, _ = s.do(http.MethodPost, "/v1/auth/logout", "", echo.Map{"refreshToken": rotated})
    s.Equal(http.StatusNoContent, rec.Code)
    rec, _ = s.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refreshToken": rotated})
    s.Equal(http.StatusUnauthorized, rec.Code)

    rec, _ = s.do(http.MethodGet, "/v1/me", "", nil)
    s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestRegisterValidation() {
    rec, out := s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"username": "bob", "email": "not-an-email", "password": "hunter22"})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("invalid_input", out["error"])
    s.Equal("email must be a valid email address", out["message"])

    rec, _ = s.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"username": "bob", "email": "bob@example.com", "password": "123"})
    s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestAdminEmailGetsAdminRole() {
    access, _, _ := s.register("root", "admin@example.com")
    _, out := s.do(http.MethodGet, "/v1/me", access, nil)
    s.Equal("ADMIN", out["role"])
}

func (s *APISuite) TestPasswordReset() {
    s.register("carol", "carol@example.com")

    rec, out := s.do(http.MethodPost, "/v1/auth/forgot-password", "", echo.Map{"email": "nobody@example.com"})
    s.Equal(http.StatusNotFound, rec.Code)
    s.Equal("No account found with that email address.", out["message"])

    rec, _ = s.do(http.MethodPost, "/v1/auth/forgot-password", "", echo.Map{"email": "carol@example.com"})
    s.Require().Equal(http.StatusOK, rec.Code)
    s.Require().Len(s.mails.urls, 1)
    link := s.mails.urls[0]
    s.True(strings.HasPrefix(link, "http://stays.test/reset-password/"), link)
    token := strings.TrimPrefix(link, "http://stays.test/reset-password/")

    rec, out = s.do(http.MethodPost, "/v1/auth/reset-password/"+token, "", echo.Map{"password": "newpass1", "confirmPassword": "other"})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("Passwords do not match.", out["message"])

    rec, out = s.do(http.MethodPost, "/v1/auth/reset-password/bogus", "", echo.Map{"password": "newpass1", "confirmPassword": "newpass1"})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("Password reset token is invalid or has expired.", out["message"])

    rec, _ = s.do(http.MethodPost, "/v1/auth/reset-password/"+token, "", echo.Map{"password": "newpass1", "confirmPassword": "newpass1"})
    s.Require().Equal(http.StatusOK, rec.Code)

    rec, _ = s.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "carol@example.com", "password": "newpass1"})
    s.Equal(http.StatusOK, rec.Code)

    // the token is single use
    rec, _ = s.do(http.MethodPost, "/v1/auth/reset-password/"+token, "", echo.Map{"password": "again12", "confirmPassword": "again12"})
    s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestListingLifecycle() {
    host, _, hostID := s.register("host", "host@example.com")
    guest, _, _ := s.register("guest", "guest@example.com")

    rec, out := s.do(http.MethodPost, "/v1/listings", host, echo.Map{"location": "Goa", "country": "India", "pricePerNight": 10})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("title is required", out["message"])

    rec, out = s.do(http.MethodPost, "/v1/listings", host, echo.Map{"title": "Hut", "location": "Goa", "country": "India"})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("pricePerNight is required", out["message"])

    id := s.createListing(host)

    rec, out = s.do(http.MethodGet, "/v1/listings/"+id, "", nil)
    s.Require().Equal(http.StatusOK, rec.Code)
    s.Equal("map-token", out["mapToken"])
    s.Equal("map-client", out["mapClientId"])
    s.Equal(hostID, out["listing"].(map[string]any)["ownerId"])
    s.Empty(out["reviews"])

    rec, _ = s.do(http.MethodGet, "/v1/listings", "", nil)
    s.Equal(http.StatusOK, rec.Code)

    update := echo.Map{"title": "Lake cabin deluxe", "location": "Manali", "country": "India", "pricePerNight": "120"}
    rec, _ = s.do(http.MethodPut, "/v1/listings/"+id, guest, update)
    s.Equal(http.StatusForbidden, rec.Code)
    rec, out = s.do(http.MethodPut, "/v1/listings/"+id, host, update)
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("Lake cabin deluxe", out["title"])

    rec, _ = s.do(http.MethodGet, "/v1/listings/nope", "", nil)
    s.Equal(http.StatusNotFound, rec.Code)

    rec, _ = s.do(http.MethodDelete, "/v1/listings/"+id, guest, nil)
    s.Equal(http.StatusForbidden, rec.Code)
    rec, _ = s.do(http.MethodDelete, "/v1/listings/"+id, host, nil)
    s.Equal(http.StatusNoContent, rec.Code)
}

func (s *APISuite) TestReviews() {
    host, _, _ := s.register("host", "host@example.com")
    guest, _, _ := s.register("guest", "guest@example.com")
    id := s.createListing(host)

    rec, out := s.do(http.MethodPost, "/v1/listings/"+id+"/reviews", guest, echo.Map{"comment": "lovely"})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("Please provide both rating and comment", out["message"])

    rec, out = s.do(http.MethodPost, "/v1/listings/"+id+"/reviews", guest, echo.Map{"rating": 5, "comment": "lovely"})
    s.Require().Equal(http.StatusCreated, rec.Code)
    reviewID := out["id"].(string)

    rec, out = s.do(http.MethodGet, "/v1/listings/"+id+"/reviews", "", nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Len(out["items"], 1)

    rec, _ = s.do(http.MethodDelete, "/v1/listings/"+id+"/reviews/"+reviewID, host, nil)
    s.Equal(http.StatusForbidden, rec.Code)
    rec, _ = s.do(http.MethodDelete, "/v1/listings/"+id+"/reviews/"+reviewID, guest, nil)
    s.Equal(http.StatusNoContent, rec.Code)
}

func (s *APISuite) TestBookingLifecycle() {
    host, _, _ := s.register("host", "host@example.com")
    guest, _, guestID := s.register("guest", "guest@example.com")
    other, _, _ := s.register("other", "other@example.com")
    id := s.createListing(host)
    path := "/v1/listings/" + id + "/bookings"

    body := echo.Map{"checkIn": "2099-06-01", "checkOut": "2099-06-04", "guests": 2, "phoneNumber": "+91 98765 43210"}
    rec, out := s.do(http.MethodPost, path, guest, body)
    s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
    bookingID := out["id"].(string)
    s.Equal("300", out["totalPrice"])
    s.EqualValues(3, out["durationNights"])
    s.Equal("pending", out["status"])
    s.Equal(guestID, out["userId"])

    rec, out = s.do(http.MethodPost, path, other, echo.Map{"checkIn": "2099-06-03", "checkOut": "2099-06-05", "guests": 1, "phoneNumber": "1"})
    s.Equal(http.StatusConflict, rec.Code)
    s.Equal("These dates are not available", out["message"])

    // back-to-back stays do not overlap
    rec, _ = s.do(http.MethodPost, path, other, echo.Map{"checkIn": "2099-06-04", "checkOut": "2099-06-05", "guests": 1, "phoneNumber": "1"})
    s.Equal(http.StatusCreated, rec.Code)

    rec, out = s.do(http.MethodPost, path, guest, echo.Map{"checkIn": "2099-06-10", "checkOut": "2099-06-12", "guests": 1})
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("Phone number is required for booking", out["message"])

    rec, out = s.do(http.MethodGet, "/v1/bookings", guest, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Len(out["items"], 1)
    rec, out = s.do(http.MethodGet, "/v1/bookings/manage", host, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Len(out["items"], 2)

    rec, _ = s.do(http.MethodGet, "/v1/bookings/"+bookingID, other, nil)
    s.Equal(http.StatusForbidden, rec.Code)
    rec, _ = s.do(http.MethodGet, "/v1/bookings/"+bookingID, host, nil)
    s.Equal(http.StatusOK, rec.Code)

    rec, out = s.do(http.MethodPut, "/v1/bookings/"+bookingID+"/payment", guest, echo.Map{"paymentMethod": "paypal"})
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("PayPal", out["paymentMethod"])

    rec, _ = s.do(http.MethodPatch, "/v1/bookings/"+bookingID+"/status", guest, echo.Map{"status": "confirmed"})
    s.Equal(http.StatusForbidden, rec.Code)
    rec, out = s.do(http.MethodPatch, "/v1/bookings/"+bookingID+"/status", host, echo.Map{"status": "confirmed"})
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("confirmed", out["status"])

    rec, out = s.do(http.MethodPatch, "/v1/bookings/"+bookingID+"/status", host, echo.Map{"status": "confirmed"})
    s.Equal(http.StatusUnprocessableEntity, rec.Code)
    s.Equal("invalid_transition", out["error"])

    rec, out = s.do(http.MethodPatch, "/v1/bookings/"+bookingID+"/cancel", guest, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("cancelled", out["status"])

    // cancelled dates are free again
    rec, _ = s.do(http.MethodPost, path, other, echo.Map{"checkIn": "2099-06-01", "checkOut": "2099-06-03", "guests": 1, "phoneNumber": "1"})
    s.Equal(http.StatusCreated, rec.Code)

    rec, _ = s.do(http.MethodDelete, "/v1/bookings/"+bookingID, other, nil)
    s.Equal(http.StatusForbidden, rec.Code)
    rec, _ = s.do(http.MethodDelete, "/v1/bookings/"+bookingID, guest, nil)
    s.Equal(http.StatusNoContent, rec.Code)
    rec, _ = s.do(http.MethodGet, "/v1/bookings/"+bookingID, guest, nil)
    s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestPaymentVerify() {
    host, _, _ := s.register("host", "host@example.com")
    guest, _, _ := s.register("guest", "guest@example.com")
    id := s.createListing(host)
    _, out := s.do(http.MethodPost, "/v1/listings/"+id+"/bookings", guest,
        echo.Map{"checkIn": "2099-07-01", "checkOut": "2099-07-11", "guests": 1, "phoneNumber": "1"})
    bookingID := out["id"].(string)
    s.Require().Equal("1000", out["totalPrice"])

    rec, out := s.do(http.MethodPost, "/v1/payments/verify", guest, echo.Map{
        "razorpay_order_id": "order_1", "razorpay_payment_id": "pay_1", "razorpay_signature": "bad",
    })
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal(false, out["success"])
    s.Equal("Invalid signature", out["error"])

    rec, out = s.do(http.MethodPost, "/v1/payments/orders", host, echo.Map{"bookingId": bookingID})
    s.Equal(http.StatusForbidden, rec.Code, rec.Body.String())

    rec, out = s.do(http.MethodPost, "/v1/payments/orders", guest, echo.Map{"bookingId": bookingID, "amount": 1})
    s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
    orderID := out["order"].(map[string]any)["id"].(string)
    s.Equal("order_"+bookingID, orderID)
    s.Equal([]int64{100000}, s.gw.amounts)

    rec, out = s.do(http.MethodPost, "/v1/payments/verify", guest, echo.Map{
        "razorpay_order_id": orderID, "razorpay_payment_id": "pay_0", "razorpay_signature": "bad", "bookingId": bookingID,
    })
    s.Equal(http.StatusBadRequest, rec.Code)
    _, out = s.do(http.MethodGet, "/v1/bookings/"+bookingID, guest, nil)
    s.Equal("failed", out["paymentStatus"])

    rec, out = s.do(http.MethodPost, "/v1/payments/verify", guest, echo.Map{
        "razorpay_order_id":   orderID,
        "razorpay_payment_id": "pay_1",
        "razorpay_signature":  payment.Sign("secret", orderID, "pay_1"),
        "bookingId":           bookingID,
    })
    s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
    s.Equal(true, out["success"])
    s.Equal("paid", out["booking"].(map[string]any)["paymentStatus"])

    rec, _ = s.do(http.MethodPost, "/v1/payments/orders", guest, echo.Map{"bookingId": bookingID})
    s.Equal(http.StatusUnprocessableEntity, rec.Code)

    rec, _ = s.do(http.MethodPost, "/v1/payments/orders", guest, echo.Map{"amount": 0})
    s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestPaymentForAnotherOrderIsRejected() {
    host, _, _ := s.register("host", "host@example.com")
    guest, _, _ := s.register("guest", "guest@example.com")
    id := s.createListing(host)
    _, out := s.do(http.MethodPost, "/v1/listings/"+id+"/bookings", guest,
        echo.Map{"checkIn": "2099-08-01", "checkOut": "2099-08-11", "guests": 1, "phoneNumber": "1"})
    bookingID := out["id"].(string)

    // a correctly signed payment for an order that was never attached
    rec, out := s.do(http.MethodPost, "/v1/payments/verify", guest, echo.Map{
        "razorpay_order_id":   "order_for_one_rupee",
        "razorpay_payment_id": "pay_cheap",
        "razorpay_signature":  payment.Sign("secret", "order_for_one_rupee", "pay_cheap"),
        "bookingId":           bookingID,
    })
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("invalid_input", out["error"])

    // a small standalone order, paid, then replayed against the booking
    rec, out = s.do(http.MethodPost, "/v1/payments/orders", guest, echo.Map{"amount": 1, "receipt": "tip"})
    s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
    cheap := out["id"].(string)
    _, _ = s.do(http.MethodPost, "/v1/payments/orders", guest, echo.Map{"bookingId": bookingID})

    rec, out = s.do(http.MethodPost, "/v1/payments/verify", guest, echo.Map{
        "razorpay_order_id":   cheap,
        "razorpay_payment_id": "pay_cheap",
        "razorpay_signature":  payment.Sign("secret", cheap, "pay_cheap"),
        "bookingId":           bookingID,
    })
    s.Equal(http.StatusBadRequest, rec.Code)
    s.Equal("Payment order does not belong to this booking", out["message"])

    _, out = s.do(http.MethodGet, "/v1/bookings/"+bookingID, guest, nil)
    s.Equal("pending", out["paymentStatus"])
}

func (s *APISuite) TestAdmin() {
    admin, _, _ := s.register("root", "admin@example.com")
    host, _, hostID := s.register("host", "host@example.com")
    guest, _, _ := s.register("guest", "guest@example.com")
    id := s.createListing(host)
    _, out := s.do(http.MethodPost, "/v1/listings/"+id+"/bookings", guest,
        echo.Map{"checkIn": "2099-08-01", "checkOut": "2099-08-03", "guests": 1, "phoneNumber": "1"})
    bookingID := out["id"].(string)

    rec, _ := s.do(http.MethodGet, "/v1/admin/users", guest, nil)
    s.Equal(http.StatusForbidden, rec.Code)

    rec, out = s.do(http.MethodGet, "/v1/admin/users", admin, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Len(out["items"], 3)

    rec, out = s.do(http.MethodPatch, "/v1/admin/bookings/"+bookingID+"/status", admin, echo.Map{"status": "pending"})
    s.Equal(http.StatusUnprocessableEntity, rec.Code)
    rec, out = s.do(http.MethodPatch, "/v1/admin/bookings/"+bookingID+"/status", admin, echo.Map{"status": "confirmed"})
    s.Equal(http.StatusOK, rec.Code)
    s.Equal("confirmed", out["status"])

    rec, out = s.do(http.MethodGet, "/v1/admin/bookings", admin, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Len(out["items"], 1)

    rec, _ = s.do(http.MethodDelete, "/v1/admin/users/"+hostID, admin, nil)
    s.Equal(http.StatusNoContent, rec.Code)
    rec, _ = s.do(http.MethodGet, "/v1/listings/"+id, "", nil)
    s.Equal(http.StatusNotFound, rec.Code)
    rec, out = s.do(http.MethodGet, "/v1/admin/bookings", admin, nil)
    s.Equal(http.StatusOK, rec.Code)
    s.Empty(out["items"])

    rec, _ = s.do(http.MethodDelete, "/v1/admin/users/"+hostID, admin, nil)
    s.Equal(http.StatusNotFound, rec.Code)
}
