package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/tomb.v2"

	"github.com/crowdsecurity/go-cs-lib/trace"

	"github.com/unifi-tools/threatwatch/pkg/apiserver/controllers"
	"github.com/unifi-tools/threatwatch/pkg/broadcast"
	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/secrets"
	"github.com/unifi-tools/threatwatch/pkg/twconfig"
)

const shutdownTimeout = 10 * time.Second

type APIServer struct {
	URL            string
	router         *gin.Engine
	httpServer     *http.Server
	broadcaster    *broadcast.Manager
	logFile        string
	httpServerTomb tomb.Tomb
}

// newGinLogger builds the logger used for the access log, writing to a
// rotated file when log_media is "file".
func newGinLogger(config *twconfig.Config) (*log.Logger, string, error) {
	clog := log.New()
	clog.SetLevel(log.InfoLevel)

	if config.LogMedia != "file" {
		return clog, "", nil
	}

	logFile := filepath.Join(config.LogDir, "threatwatch_api.log")

	logger := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    500, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	if config.API.LogMaxSize != 0 {
		logger.MaxSize = config.API.LogMaxSize
	}

	if config.API.LogMaxFiles != 0 {
		logger.MaxBackups = config.API.LogMaxFiles
	}

	if config.API.LogMaxAge != 0 {
		logger.MaxAge = config.API.LogMaxAge
	}

	if config.API.CompressLogs != nil {
		logger.Compress = *config.API.CompressLogs
	}

	clog.SetOutput(logger)

	return clog, logFile, nil
}

// NewServer wires the router, the controller and the observer manager. The
// broadcaster is owned by the caller and shared with ingestion; the server
// only drains it on shutdown.
func NewServer(config *twconfig.Config, dbClient *database.Client, broadcaster *broadcast.Manager,
	status controllers.StatusProvider, sealer *secrets.Sealer) (*APIServer, error) {
	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.ForwardedByClientIP = false

	clog, logFile, err := newGinLogger(config)
	if err != nil {
		return nil, err
	}

	gin.DefaultErrorWriter = clog.WriterLevel(log.ErrorLevel)
	gin.DefaultWriter = clog.Writer()

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s %q %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Page or Method not found"})
	})

	router.Use(gin.RecoveryWithWriter(clog.WriterLevel(log.ErrorLevel)))

	controller := controllers.New(dbClient, broadcaster, status, sealer,
		config.API.WriteTimeoutDuration, config.Prometheus != nil && config.Prometheus.Enabled)
	controller.RegisterRoutes(router)

	return &APIServer{
		URL:         config.API.ListenURI,
		router:      router,
		broadcaster: broadcaster,
		logFile:     logFile,
	}, nil
}

func (s *APIServer) Router() *gin.Engine {
	return s.router
}

// Run starts the http server and blocks until it stops.
func (s *APIServer) Run() error {
	defer trace.CatchPanic("threatwatch/runServer")

	s.httpServer = &http.Server{
		Addr:    s.URL,
		Handler: s.router,
	}

	s.httpServerTomb.Go(func() error {
		log.Infof("API server listening on %s", s.URL)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}

		return nil
	})

	if err := s.httpServerTomb.Wait(); err != nil {
		return fmt.Errorf("api server stopped with error: %w", err)
	}

	return nil
}

// Shutdown stops accepting requests, then drains and closes every observer
// connection.
func (s *APIServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	s.broadcaster.Shutdown()

	s.httpServerTomb.Kill(nil)

	return s.httpServerTomb.Wait()
}
