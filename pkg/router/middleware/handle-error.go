// Copyright (C) 2025-2026, Crashwise Authors. All rights reserved.
// See LICENSE for license information.

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yahyatoubali/Crashwise-sub001/pkg/errors"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/logger/log"
	"github.com/yahyatoubali/Crashwise-sub001/pkg/model/rest"
)

// HandleErrors renders every error attached to the gin context as the
// structured envelope. Handlers attach with c.Error(err) and return; only
// the first error decides the response.
func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		for i := range c.Errors {
			if i > 0 {
				log.GlobalLogger().WithContext(c).Errorf(
					"error %d: %+v. Subsequent error in request; the handler should return on the first error",
					i, c.Errors[i].Error())
			}
		}

		err := c.Errors[0].Err
		cErr, ok := errors.AsError(err)
		if !ok {
			cErr = errors.Wrap(err, errors.KindWorkflowSubmissionError, "unclassified internal error")
		}
		log.GlobalLogger().WithContext(c).Errorf(
			"Rest interface error FullPath %s RequestPath %s Kind %s Message '%s' Error %+v Stack %s",
			c.FullPath(), c.Request.URL.Path, cErr.Kind, cErr.Message, cErr.InnerError, cErr.GetTopStackString())
		c.AbortWithStatusJSON(cErr.Kind.HTTPStatus(), rest.NewErrorEnvelope(cErr))
	}
}
