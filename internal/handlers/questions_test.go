package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilythestrangee/campus-qa/backend/internal/handlers"
	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
)

var _ = Describe("QuestionHandler", func() {
	var (
		router *gin.Engine
		svc    *mockQAService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockQAService{}
		h := handlers.NewQuestionHandler(nil, svc)

		authed := router.Group("", func(c *gin.Context) {
			middleware.SetUserID(c, callerID)
			c.Next()
		})
		authed.POST("/questions", h.CreateQuestion)
		authed.DELETE("/questions/:id", h.DeleteQuestion)
	})

	DescribeTable("rejects invalid questions before touching storage",
		func(body string) {
			req := httptest.NewRequest(http.MethodPost, "/questions", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		},
		Entry("no tags", `{"title":"t","content":"c","category":"cs","tags":[]}`),
		Entry("six tags", `{"title":"t","content":"c","category":"cs","tags":["a","b","c","d","e","f"]}`),
		Entry("blank tags only", `{"title":"t","content":"c","category":"cs","tags":[" ","  "]}`),
		Entry("missing category", `{"title":"t","content":"c","tags":["go"]}`),
		Entry("missing title", `{"content":"c","category":"cs","tags":["go"]}`),
	)

	It("deletes through the service as the caller", func() {
		var requester, question int64
		svc.deleteQuestionFn = func(_ context.Context, requesterID, questionID int64) error {
			requester, question = requesterID, questionID
			return nil
		}

		req := httptest.NewRequest(http.MethodDelete, "/questions/31", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(requester).To(Equal(callerID))
		Expect(question).To(Equal(int64(31)))
	})

	It("returns 403 when someone else deletes the question", func() {
		svc.deleteQuestionFn = func(context.Context, int64, int64) error {
			return fmt.Errorf("%w: only the author may delete", qa.ErrForbidden)
		}

		req := httptest.NewRequest(http.MethodDelete, "/questions/31", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusForbidden))
	})
})
