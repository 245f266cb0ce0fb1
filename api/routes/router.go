package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline/threadline-backend/api/controllers"
	admincontrollers "github.com/threadline/threadline-backend/api/controllers/admin"
	webhookcontrollers "github.com/threadline/threadline-backend/api/controllers/webhooks"
	"github.com/threadline/threadline-backend/api/middleware"
	"github.com/threadline/threadline-backend/internal/auth"
	"github.com/threadline/threadline-backend/internal/cart"
	"github.com/threadline/threadline-backend/internal/categories"
	checkoutsvc "github.com/threadline/threadline-backend/internal/checkout"
	"github.com/threadline/threadline-backend/internal/creators"
	"github.com/threadline/threadline-backend/internal/notifications"
	"github.com/threadline/threadline-backend/internal/orders"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/internal/users"
	"github.com/threadline/threadline-backend/internal/wishlist"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	pkgredis "github.com/threadline/threadline-backend/pkg/redis"
)

// AppSettings is the settings surface the router needs: public reads, admin writes and the
// maintenance gate.
type AppSettings interface {
	controllers.SettingsReader
	admincontrollers.SettingsWriter
	MaintenanceMode(ctx context.Context) (bool, error)
}

type signingClient interface {
	SigningSecret() string
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Dependencies carries everything the HTTP surface is wired to. Nil services produce
// handlers that answer 500, nil infrastructure disables the matching middleware.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth                  auth.Service
	Products              products.Service
	Categories            categories.Service
	Creators              creators.Service
	Users                 users.Service
	Cart                  cart.Service
	Wishlist              wishlist.Service
	Checkout              checkoutsvc.Service
	Orders                orders.Service
	Notifications         notifications.Service
	CustomerNotifications *notifications.CustomerService
	Settings              AppSettings

	StripeClient  signingClient
	StripeWebhook webhookcontrollers.StripeWebhookService
	WebhookGuard  webhookGuard
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}
	if deps.Settings != nil {
		r.Use(middleware.Maintenance(deps.Settings, logg))
	}

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	idempotent := middleware.Idempotency(deps.Idempotency, deps.Config.Redis.IdempotencyTTL, logg)
	authenticated := middleware.Auth(cfg.JWT, logg)

	r.Route("/api", func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/live", controllers.HealthLive(cfg))
			r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
				"db":    deps.DB,
				"redis": deps.Redis,
			}))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(authenticated).Get("/user", controllers.AuthUser(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{id}", controllers.ProductShow(deps.Products, logg))
			r.Get("/{id}/stock", controllers.ProductStock(deps.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Categories, logg))
			r.Get("/{slug}", controllers.CategoryShow(deps.Categories, logg))
		})

		r.Route("/creators", func(r chi.Router) {
			r.Get("/", controllers.CreatorList(deps.Creators, logg))
			r.Get("/{id}", controllers.CreatorShow(deps.Creators, logg))
		})

		r.Get("/app-settings", controllers.AppSettingsShow(deps.Settings, logg))

		r.Post("/handleStripeWebhook", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.WebhookGuard, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Put("/", controllers.CartReplace(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Delete("/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(deps.Wishlist, logg))
				r.Put("/", controllers.WishlistReplace(deps.Wishlist, logg))
				r.Delete("/", controllers.WishlistClear(deps.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemoveItem(deps.Wishlist, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.With(idempotent).Post("/", controllers.OrderPlace(deps.Checkout, logg))
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{id}", controllers.OrderShow(deps.Orders, logg))
			})
			r.With(idempotent).Post("/initiatePayment", controllers.InitiatePayment(deps.Checkout, logg))

			r.Route("/customer-notifications", func(r chi.Router) {
				r.Get("/", controllers.ListMyNotifications(deps.CustomerNotifications, logg))
				r.Get("/unread-count", controllers.MyUnreadNotificationCount(deps.CustomerNotifications, logg))
				r.Post("/read-all", controllers.MarkAllMyNotificationsRead(deps.CustomerNotifications, logg))
				r.Post("/{id}/read", controllers.MarkMyNotificationRead(deps.CustomerNotifications, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/products", func(r chi.Router) {
				r.Post("/", admincontrollers.CreateProduct(deps.Products, logg))
				r.Put("/{id}", admincontrollers.UpdateProduct(deps.Products, logg))
				r.Delete("/{id}", admincontrollers.DeleteProduct(deps.Products, logg))
				r.Patch("/{id}/stock", admincontrollers.AdjustProductStock(deps.Products, logg))
				r.Patch("/{id}/promotion", admincontrollers.SetProductPromotion(deps.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", admincontrollers.ListCategories(deps.Categories, logg))
				r.Post("/", admincontrollers.CreateCategory(deps.Categories, logg))
				r.Get("/stats", admincontrollers.CategoryStats(deps.Categories, logg))
				r.Post("/reorder", admincontrollers.ReorderCategories(deps.Categories, logg))
				r.Get("/{id}", admincontrollers.ShowCategory(deps.Categories, logg))
				r.Put("/{id}", admincontrollers.UpdateCategory(deps.Categories, logg))
				r.Delete("/{id}", admincontrollers.DeleteCategory(deps.Categories, logg))
			})

			r.Route("/creators", func(r chi.Router) {
				r.Get("/", admincontrollers.ListCreators(deps.Creators, logg))
				r.Post("/", admincontrollers.CreateCreator(deps.Creators, logg))
				r.Put("/{id}", admincontrollers.UpdateCreator(deps.Creators, logg))
				r.Delete("/{id}", admincontrollers.DeleteCreator(deps.Creators, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", admincontrollers.ListUsers(deps.Users, logg))
				r.Post("/", admincontrollers.CreateUser(deps.Users, logg))
				r.Get("/stats", admincontrollers.UserStats(deps.Users, logg))
				r.Get("/{id}", admincontrollers.ShowUser(deps.Users, logg))
				r.Put("/{id}", admincontrollers.UpdateUser(deps.Users, logg))
				r.Delete("/{id}", admincontrollers.DeleteUser(deps.Users, logg))
				r.Post("/{id}/reset-password", admincontrollers.ResetUserPassword(deps.Users, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", admincontrollers.ListOrders(deps.Orders, logg))
				r.Get("/stats", admincontrollers.OrderStats(deps.Orders, logg))
				r.Get("/revenue-chart", admincontrollers.RevenueChart(deps.Orders, logg))
				r.Get("/export", admincontrollers.ExportOrders(deps.Orders, logg))
				r.Get("/{id}", admincontrollers.ShowOrder(deps.Orders, logg))
				r.Patch("/{id}/status", admincontrollers.UpdateOrderStatus(deps.Orders, logg))
				r.Patch("/{id}/payment-status", admincontrollers.UpdateOrderPaymentStatus(deps.Orders, logg))
				r.Patch("/{id}/notes", admincontrollers.UpdateOrderNotes(deps.Orders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", admincontrollers.ListNotifications(deps.Notifications, logg))
				r.Get("/unread-count", admincontrollers.NotificationUnreadCount(deps.Notifications, logg))
				r.Post("/", admincontrollers.CreateNotification(deps.Notifications, logg))
				r.Post("/read-all", admincontrollers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Delete("/", admincontrollers.DeleteAllNotifications(deps.Notifications, logg))
				r.Get("/{id}", admincontrollers.ShowNotification(deps.Notifications, logg))
				r.Put("/{id}", admincontrollers.UpdateNotification(deps.Notifications, logg))
				r.Delete("/{id}", admincontrollers.DeleteNotification(deps.Notifications, logg))
				r.Post("/{id}/read", admincontrollers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/customer-notifications", func(r chi.Router) {
				r.Get("/", admincontrollers.ListCustomerNotifications(deps.CustomerNotifications, logg))
				r.Post("/", admincontrollers.CreateCustomerNotification(deps.CustomerNotifications, logg))
				r.Put("/{id}", admincontrollers.UpdateCustomerNotification(deps.CustomerNotifications, logg))
				r.Delete("/{id}", admincontrollers.DeleteCustomerNotification(deps.CustomerNotifications, logg))
			})

			r.Put("/app-settings", admincontrollers.UpdateAppSettings(deps.Settings, logg))
		})
	})

	return r
}
