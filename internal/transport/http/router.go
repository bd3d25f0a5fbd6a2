package handlers

import (
	"strings"

	"github.com/waste3d/coursehub/internal/middleware"
	"github.com/waste3d/coursehub/internal/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Auth           *AuthHandler
	Courses        *CourseHandler
	Videos         *VideoHandler
	Limiter        *middleware.RateLimiter
	LoginRule      middleware.RateRule
	Validator      middleware.TokenValidator
	AllowedOrigins string
	Log            *logger.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))
	r.MaxMultipartMemory = 32 << 20

	config := cors.DefaultConfig()
	if origins := splitOrigins(d.AllowedOrigins); len(origins) > 0 {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Range"}
	config.ExposeHeaders = []string{"Content-Length", "Content-Range", "Accept-Ranges"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", d.Auth.Register)
			auth.POST("/login", d.Limiter.Limit(d.LoginRule), d.Auth.Login)
			auth.POST("/refresh", d.Auth.Refresh)
			auth.POST("/logout", d.Auth.Logout)
			auth.GET("/me", middleware.AuthMiddleware(d.Validator), d.Auth.Me)
		}

		api.GET("/course/:course_id/thumbnail", d.Courses.Thumbnail)

		private := api.Group("")
		private.Use(middleware.AuthMiddleware(d.Validator))
		{
			private.GET("/dashboard", d.Courses.Dashboard)

			private.POST("/course/draft", d.Courses.StartDraft)
			private.POST("/course/draft/:draft_id/commit", d.Courses.CommitDraft)
			private.DELETE("/course/draft/:draft_id", d.Courses.DiscardDraft)

			private.GET("/course/:course_id", d.Courses.GetOne)
			private.POST("/course/:course_id/edit", d.Courses.Edit)
			private.POST("/course/:course_id/delete", d.Courses.Delete)
			private.POST("/course/:course_id/add-videos", d.Courses.AddVideos)
			private.POST("/course/:course_id/reorder", d.Courses.Reorder)

			private.POST("/enroll/:course_id", d.Courses.Enroll)
			private.POST("/unenroll/:course_id", d.Courses.Unenroll)
			private.GET("/watch/:course_id/:order", d.Courses.Watch)

			private.POST("/video/:video_id/edit", d.Videos.Edit)
			private.POST("/video/:video_id/delete", d.Videos.Delete)
			private.GET("/video/stream/:video_id", d.Videos.Stream)
		}
	}

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
