package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ginLoggerKey = "logger"

// Logger of the request, tagged with method and path
func LOG(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(ginLoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	entry := NewSublogger("api").
		WithField("method", c.Request.Method).
		WithField("path", c.FullPath())
	c.Set(ginLoggerKey, entry)
	return entry
}

// Aborts the request with the status and a JSON error body, returns the logger for the details
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
	return LOG(c).WithError(err).WithField("status", status)
}
