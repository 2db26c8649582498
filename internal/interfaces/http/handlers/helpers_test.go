package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// withUser stands in for the auth middleware
func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func sessionRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.CartSession(0))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, sessionID string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(middleware.SessionIDHeader, sessionID)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "application/pdf" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type fakeMenu struct {
	restaurants map[string]*catalog.Restaurant
}

func newFakeMenu() *fakeMenu {
	return &fakeMenu{restaurants: map[string]*catalog.Restaurant{
		"burger-barn": {
			ID:   "burger-barn",
			Name: "Burger Barn",
			Menu: []catalog.MenuItem{
				{ID: "bb-classic", RestaurantID: "burger-barn", Name: "Classic Burger", Price: 1250},
				{ID: "bb-fries", RestaurantID: "burger-barn", Name: "Fries", Price: 450},
			},
		},
		"sakura-sushi": {
			ID:   "sakura-sushi",
			Name: "Sakura Sushi",
			Menu: []catalog.MenuItem{
				{ID: "ss-salmon", RestaurantID: "sakura-sushi", Name: "Salmon Roll", Price: 1400},
			},
		},
	}}
}

func (m *fakeMenu) GetMenuItem(_ context.Context, restaurantID, itemID string) (*catalog.Restaurant, *catalog.MenuItem, error) {
	r, ok := m.restaurants[restaurantID]
	if !ok {
		return nil, nil, catalog.ErrRestaurantNotFound
	}
	item, ok := r.FindMenuItem(itemID)
	if !ok {
		return nil, nil, catalog.ErrMenuItemNotFound
	}
	return r, item, nil
}

type fakePromoStore map[string]*promo.PromoCode

func (s fakePromoStore) FindActivePromo(_ context.Context, code string) (*promo.PromoCode, error) {
	return s[code], nil
}

func testPromos() fakePromoStore {
	return fakePromoStore{
		"WELCOME10": {ID: 1, Code: "WELCOME10", DiscountType: promo.DiscountPercentage, DiscountValue: 10, IsActive: true},
		"SAVE20":    {ID: 3, Code: "SAVE20", DiscountType: promo.DiscountPercentage, DiscountValue: 20, MinOrderAmount: 5000, IsActive: true},
	}
}
