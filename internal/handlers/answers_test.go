package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/emilythestrangee/campus-qa/backend/internal/handlers"
	"github.com/emilythestrangee/campus-qa/backend/internal/middleware"
	"github.com/emilythestrangee/campus-qa/backend/internal/models"
	"github.com/emilythestrangee/campus-qa/backend/internal/qa"
)

const callerID int64 = 42

var _ = Describe("AnswerHandler", func() {
	var (
		router *gin.Engine
		svc    *mockQAService
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockQAService{}
		h := handlers.NewAnswerHandler(nil, svc)

		authed := router.Group("", func(c *gin.Context) {
			middleware.SetUserID(c, callerID)
			c.Next()
		})
		authed.POST("/answers/:id/vote", h.VoteAnswer)
		authed.POST("/answers/:id/accept", h.AcceptAnswer)
		authed.DELETE("/answers/:id", h.DeleteAnswer)
		authed.POST("/questions/:id/answers", h.CreateAnswer)
		authed.GET("/questions/:id/votes", h.GetQuestionVotes)

		router.POST("/anon/answers/:id/vote", h.VoteAnswer)
	})

	Describe("VoteAnswer", func() {
		It("passes the caller, answer and value to the service", func() {
			var gotVoter, gotAnswer int64
			var gotValue int
			svc.castVoteFn = func(_ context.Context, voterID, answerID int64, requested int) (*qa.VoteResult, error) {
				gotVoter, gotAnswer, gotValue = voterID, answerID, requested
				v := requested
				return &qa.VoteResult{VoteValue: &v, Answer: qa.AnswerSnapshot{ID: answerID, Upvotes: 1}}, nil
			}

			w := do(http.MethodPost, "/answers/7/vote", `{"value": 1}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotVoter).To(Equal(callerID))
			Expect(gotAnswer).To(Equal(int64(7)))
			Expect(gotValue).To(Equal(1))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["vote_value"]).To(BeNumerically("==", 1))
			Expect(resp["answer"]).To(HaveKeyWithValue("upvotes", BeNumerically("==", 1)))
		})

		It("accepts an explicit zero as a retraction", func() {
			called := false
			svc.castVoteFn = func(_ context.Context, _, _ int64, requested int) (*qa.VoteResult, error) {
				called = true
				Expect(requested).To(Equal(0))
				return &qa.VoteResult{}, nil
			}

			w := do(http.MethodPost, "/answers/7/vote", `{"value": 0}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(called).To(BeTrue())
			Expect(w.Body.String()).To(ContainSubstring(`"vote_value":null`))
		})

		It("returns 400 when the value is missing", func() {
			w := do(http.MethodPost, "/answers/7/vote", `{}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed answer id", func() {
			w := do(http.MethodPost, "/answers/abc/vote", `{"value": 1}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 without an authenticated caller", func() {
			w := do(http.MethodPost, "/anon/answers/7/vote", `{"value": 1}`)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		DescribeTable("maps service errors to status codes",
			func(err error, status int) {
				svc.castVoteFn = func(context.Context, int64, int64, int) (*qa.VoteResult, error) {
					return nil, err
				}
				w := do(http.MethodPost, "/answers/7/vote", `{"value": -1}`)
				Expect(w.Code).To(Equal(status))
			},
			Entry("invalid input", fmt.Errorf("%w: vote value", qa.ErrInvalidInput), http.StatusBadRequest),
			Entry("self vote", fmt.Errorf("%w: cannot vote on own content", qa.ErrForbidden), http.StatusForbidden),
			Entry("missing answer", fmt.Errorf("%w: answer 7", qa.ErrNotFound), http.StatusNotFound),
			Entry("conflict", fmt.Errorf("%w: duplicate", qa.ErrConflict), http.StatusConflict),
			Entry("storage", errors.New("connection reset"), http.StatusInternalServerError),
		)

		It("flags conflicts as retryable", func() {
			svc.castVoteFn = func(context.Context, int64, int64, int) (*qa.VoteResult, error) {
				return nil, fmt.Errorf("%w: duplicate", qa.ErrConflict)
			}
			w := do(http.MethodPost, "/answers/7/vote", `{"value": 1}`)

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["retryable"]).To(BeTrue())
		})

		It("hides storage error details", func() {
			svc.castVoteFn = func(context.Context, int64, int64, int) (*qa.VoteResult, error) {
				return nil, fmt.Errorf("%w: pq: password authentication failed", qa.ErrStorage)
			}
			w := do(http.MethodPost, "/answers/7/vote", `{"value": 1}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("password"))
		})

		It("flags serialization failures as retryable without leaking details", func() {
			svc.castVoteFn = func(context.Context, int64, int64, int) (*qa.VoteResult, error) {
				return nil, fmt.Errorf("%w: %w", qa.ErrStorage, &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
			}
			w := do(http.MethodPost, "/answers/7/vote", `{"value": 1}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(MatchJSON(`{"error": "Internal server error", "retryable": true}`))
		})

		It("does not flag constraint violations as retryable", func() {
			svc.castVoteFn = func(context.Context, int64, int64, int) (*qa.VoteResult, error) {
				return nil, fmt.Errorf("%w: %w", qa.ErrStorage, &pgconn.PgError{Code: "23514"})
			}
			w := do(http.MethodPost, "/answers/7/vote", `{"value": 1}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(MatchJSON(`{"error": "Internal server error"}`))
		})
	})

	Describe("AcceptAnswer", func() {
		It("returns the accepted answer and question", func() {
			svc.acceptAnswerFn = func(_ context.Context, requesterID, answerID int64) (*qa.AcceptResult, error) {
				Expect(requesterID).To(Equal(callerID))
				return &qa.AcceptResult{AcceptedAnswerID: answerID, QuestionID: 3}, nil
			}

			w := do(http.MethodPost, "/answers/9/accept", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"answer_id": 9, "question_id": 3}`))
		})

		It("returns 403 when the caller does not own the question", func() {
			svc.acceptAnswerFn = func(context.Context, int64, int64) (*qa.AcceptResult, error) {
				return nil, fmt.Errorf("%w: only the question author may accept", qa.ErrForbidden)
			}
			Expect(do(http.MethodPost, "/answers/9/accept", "").Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("DeleteAnswer", func() {
		It("returns 200 once the service has cleaned up", func() {
			var deleted int64
			svc.deleteAnswerFn = func(_ context.Context, _, answerID int64) error {
				deleted = answerID
				return nil
			}
			Expect(do(http.MethodDelete, "/answers/11", "").Code).To(Equal(http.StatusOK))
			Expect(deleted).To(Equal(int64(11)))
		})

		It("returns 404 for an unknown answer", func() {
			svc.deleteAnswerFn = func(context.Context, int64, int64) error {
				return fmt.Errorf("%w: answer 11", qa.ErrNotFound)
			}
			Expect(do(http.MethodDelete, "/answers/11", "").Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("CreateAnswer", func() {
		It("returns 400 when content is missing", func() {
			w := do(http.MethodPost, "/questions/3/answers", `{}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 when the question does not exist", func() {
			svc.postAnswerFn = func(context.Context, int64, int64, string) (*models.Answer, error) {
				return nil, fmt.Errorf("%w: question 3", qa.ErrNotFound)
			}
			w := do(http.MethodPost, "/questions/3/answers", `{"content": "try a mutex"}`)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GetQuestionVotes", func() {
		It("returns the caller's votes keyed by answer id", func() {
			svc.votesFn = func(_ context.Context, voterID, questionID int64) (map[int64]int, error) {
				Expect(voterID).To(Equal(callerID))
				return map[int64]int{5: 1, 6: -1}, nil
			}

			w := do(http.MethodGet, "/questions/3/votes", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"question_id": 3, "votes": {"5": 1, "6": -1}}`))
		})
	})
})
