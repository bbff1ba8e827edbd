package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-cqrs-users/config"
	"github.com/oksasatya/go-ddd-cqrs-users/internal/application"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	userService  *application.UserService
	queryService *application.QueryService
	imageURL     func(name string) string
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }

func SetUserService(s *application.UserService)   { userService = s }
func GetUserService() *application.UserService    { return userService }
func SetQueryService(s *application.QueryService) { queryService = s }
func GetQueryService() *application.QueryService  { return queryService }

// SetImageURL sets how stored profile image names are turned into links. Nil leaves names unlinked.
func SetImageURL(fn func(name string) string) { imageURL = fn }
func GetImageURL() func(name string) string   { return imageURL }
