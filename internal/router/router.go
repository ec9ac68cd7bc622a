package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"kingspos/internal/auth"
	"kingspos/internal/config"
	"kingspos/internal/handler"
	"kingspos/internal/service"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Document *handler.DocumentHandler
	Events   *handler.EventsHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log zerolog.Logger,
	sessions service.AuthService,
	tokens *auth.TokenService,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Kings POS backend is running")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Tokens are optional at this layer; the gates decide per route.
	withSession := []echo.MiddlewareFunc{
		echojwt.WithConfig(echojwt.Config{
			SigningKey:             tokens.Secret(),
			TokenLookup:            "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + cfg.SessionCookie,
			NewClaimsFunc:          func(echo.Context) jwt.Claims { return &jwt.RegisteredClaims{} },
			ContinueOnIgnoredError: true,
			ErrorHandler: func(echo.Context, error) error {
				return nil
			},
		}),
		resolveSession(sessions, log),
	}

	e.GET("/ws", h.Events.Stream, append(withSession, requireAuth)...)

	api := e.Group("/api", withSession...)

	users := api.Group("/users")
	users.POST("/register", h.Auth.Register)
	users.POST("/login", h.Auth.Login)
	users.POST("/logout", h.Auth.Logout)
	users.GET("/profile", h.User.Profile, requireAuth)
	users.GET("/users", h.User.ListUsers, adminOnly)
	users.DELETE("/users/:id", h.User.DeleteUser, adminOnly)

	categories := api.Group("/categories")
	categories.GET("", h.Category.ListCategories, requireAuth)
	categories.GET("/tree", h.Category.CategoryTree, requireAuth)
	categories.GET("/:id", h.Category.GetCategory, requireAuth)
	categories.POST("", h.Category.CreateCategory, catalogStaff)
	categories.PUT("/:id", h.Category.UpdateCategory, catalogStaff)
	categories.DELETE("/:id", h.Category.DeleteCategory, catalogStaff)

	products := api.Group("/products")
	products.GET("", h.Product.ListProducts, requireAuth)
	products.GET("/:id", h.Product.GetProduct, requireAuth)
	products.GET("/:id/variants", h.Product.ListVariants, requireAuth)
	products.POST("", h.Product.CreateProduct, catalogStaff)
	products.PUT("/:id", h.Product.UpdateProduct, catalogStaff)
	products.DELETE("/:id", h.Product.DeleteProduct, catalogStaff)

	documents := api.Group("/documents")
	documents.GET("", h.Document.ListDocuments, requireAuth)
	documents.GET("/:id", h.Document.GetDocument, requireAuth)
	documents.POST("", h.Document.CreateDocument, requireAuth)
	documents.PUT("/:id", h.Document.UpdateDocument, requireAuth)
	documents.DELETE("/:id", h.Document.DeleteDocument, catalogStaff)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
