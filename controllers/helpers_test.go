package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/middleware"
	"github.com/Jomkit/Omakase/services"
	"github.com/Jomkit/Omakase/tests/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTest wires a fresh database plus mock services into the package
// singletons and returns the database and a recording event publisher.
func setupTest(t *testing.T) (*gorm.DB, *services.MockEventPublisher) {
	t.Helper()

	db := testutil.NewTestDB(t)
	config.SetDB(db)

	publisher := services.NewMockEventPublisher()
	services.SetEventPublisher(publisher)
	services.SetQRCodeService(&services.DefaultQRCodeService{BaseURL: "http://localhost:8080"})
	services.SetImageService(nil)

	return db, publisher
}

// newRouter builds the application route tree over an in-memory session
// store, mirroring the production wiring.
func newRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Sessions(middleware.NewMemoryStore()))

	router.POST("/login", Login)
	router.POST("/logout", Logout)

	router.GET("/", RedirectEmployees(), LandingPage)
	router.GET("/dine-in/select-table", RedirectIfOrderActive(), RedirectEmployees(), SelectTablePage)
	router.POST("/dine-in/select-table", RedirectIfOrderActive(), RedirectEmployees(), SelectTable)
	router.POST("/takeout/contact-form", RedirectIfOrderActive(), RedirectEmployees(), TakeoutContactForm)
	router.POST("/delivery/contact-form", RedirectIfOrderActive(), RedirectEmployees(), DeliveryContactForm)
	router.GET("/order", RedirectEmployees(), OrderPage)
	router.GET("/checkout", RedirectEmployees(), CheckoutPage)
	router.POST("/payment", RedirectEmployees(), Payment)
	router.GET("/thank-you", RedirectEmployees(), ThankYouPage)
	router.GET("/tables/:id/qrcode", TableQRCode)

	employees := router.Group("/employees")
	{
		employees.GET("/dashboard", middleware.RequirePermission(middleware.ActionViewDashboard), Dashboard)
		employees.GET("/full-menu", middleware.RequirePermission(middleware.ActionViewDashboard), FullMenu)
		employees.GET("/list", middleware.RequirePermission(middleware.ActionViewDashboard), ListEmployees)
		employees.POST("", middleware.RequirePermission(middleware.ActionManageEmployees), RegisterEmployee)
		employees.DELETE("/:id", middleware.RequirePermission(middleware.ActionManageEmployees), DeleteUser)
		employees.PATCH("/restaurant", middleware.RequirePermission(middleware.ActionEditRestaurant), UpdateRestaurant)
		employees.POST("/menu-items", middleware.RequirePermission(middleware.ActionManageMenu), AddMenuItem)
		employees.POST("/menu-items/:id/image", middleware.RequirePermission(middleware.ActionManageMenu), UploadMenuItemImage)
	}

	api := router.Group("/omakase/api")
	api.Use(cors.Default())
	{
		api.GET("/orders", GetAllOrders)
		api.GET("/order/:id", GetOrderByID)
		api.POST("/order", CreateOrder)
		api.PATCH("/order/:id", UpdateOrder)
		api.PATCH("/order/:id/add_item", AddToOrder)
		api.GET("/menu/list_menu_items", ListMenuItems)
		api.GET("/menu/:id", GetMenuItem)
	}

	return router
}

// testClient performs requests against the router while carrying the
// session cookie between calls, the way a browser would.
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	return &testClient{t: t, router: newRouter()}
}

// do sends one request. A non-nil body is marshalled to JSON.
func (tc *testClient) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	tc.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			tc.t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range tc.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		tc.setCookie(cookie)
	}
	return w
}

func (tc *testClient) setCookie(cookie *http.Cookie) {
	for i, existing := range tc.cookies {
		if existing.Name == cookie.Name {
			tc.cookies[i] = cookie
			return
		}
	}
	tc.cookies = append(tc.cookies, cookie)
}

// login authenticates through the login endpoint so the session carries
// the user id.
func (tc *testClient) login(username, password string) {
	tc.t.Helper()

	w := tc.do(http.MethodPost, "/login", gin.H{
		"username": username,
		"password": password,
	}, nil)
	if w.Code != http.StatusOK {
		tc.t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}
}

// itoa renders a record id for use in a request path.
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// decode unmarshals a JSON response body.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// errorCode digs the error code out of the standard error envelope.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	body := decode(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response has no error envelope: %s", w.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}
