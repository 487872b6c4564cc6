package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"amc.com/dart-feedback/internal/store"
	"amc.com/dart-feedback/internal/utils"
	log "github.com/sirupsen/logrus"
)

const (
	errorResultText  = "An error occurred while processing your query."
	errorSentiment   = "Error"
	errorDistance    = "N/A"
	errorSummaryText = "Error processing request."
)

type QueryService struct {
	comments     CommentSource
	llm          Generator
	defaultModel string
}

func NewQueryService(comments CommentSource, llm Generator, defaultModel string) *QueryService {
	if llm == nil {
		llm = NoopBackend{}
	}
	return &QueryService{
		comments:     comments,
		llm:          llm,
		defaultModel: defaultModel,
	}
}

type ScoredDocument struct {
	Document  string
	Sentiment Sentiment
	Score     float64
}

// Distance is 1 - Score; smaller is more relevant.
func (d ScoredDocument) Distance() float64 {
	return 1 - d.Score
}

// documentText joins the non-empty comment fields with single spaces.
func documentText(c store.Comment) string {
	parts := make([]string, 0, 3)
	for _, field := range []string{c.Observation, c.Discussion, c.Recommendation} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}

// RankComments classifies and scores every comment against the query, keeps
// those matching the sentiment filter and within the sensitivity distance, and
// returns at most cfg.ResultCount of them, best first. Equal scores keep
// comment order.
func RankComments(comments []store.Comment, query string, cfg store.SessionConfig) []ScoredDocument {
	if cfg.ResultCount <= 0 {
		return []ScoredDocument{}
	}

	scored := make([]ScoredDocument, 0, len(comments))
	for _, c := range comments {
		doc := documentText(c)
		sentiment := Classify(doc)
		if cfg.SentimentFilter != store.SentimentFilterAll && string(sentiment) != cfg.SentimentFilter {
			continue
		}
		scored = append(scored, ScoredDocument{
			Document:  doc,
			Sentiment: sentiment,
			Score:     utils.SequenceRatio(query, doc),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	relevant := scored[:0]
	for _, d := range scored {
		if d.Distance() <= cfg.Sensitivity {
			relevant = append(relevant, d)
		}
	}

	if len(relevant) > cfg.ResultCount {
		relevant = relevant[:cfg.ResultCount]
	}
	return relevant
}

// Answer builds the history record for a query against the event's comments.
// It never fails: any error while retrieving, ranking or summarizing yields
// the error record instead.
func (s *QueryService) Answer(ctx context.Context, eventID int64, query string, cfg store.SessionConfig) (rec store.QueryRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Error querying comments for event %d: %v", eventID, r)
			rec = errorRecord(query)
		}
	}()

	comments, err := s.comments.ListComments(eventID)
	if err != nil {
		log.Errorf("Error querying comments for event %d: %v", eventID, err)
		return errorRecord(query)
	}

	ranked := RankComments(comments, query, cfg)

	responses := make([]store.RankedResult, 0, len(ranked))
	docs := make([]string, 0, len(ranked))
	for _, d := range ranked {
		responses = append(responses, store.RankedResult{
			Document:  d.Document,
			Sentiment: string(d.Sentiment),
			Distance:  fmt.Sprintf("%.2f", d.Distance()),
		})
		docs = append(docs, d.Document)
	}

	var summary *string
	if cfg.Summarize && len(ranked) > 0 {
		contextText := strings.Join(docs, " ")
		prompt := "Based on the following context, answer the user's question.\n\n" +
			fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", contextText, query)
		text := generateOrFallback(ctx, s.llm, s.modelFor(cfg), prompt, contextText)
		summary = &text
	}

	log.Debugf("Query on event %d returned %d results.", eventID, len(responses))
	return store.QueryRecord{
		Query:     query,
		Responses: responses,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}

func (s *QueryService) modelFor(cfg store.SessionConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return s.defaultModel
}

func errorRecord(query string) store.QueryRecord {
	summary := errorSummaryText
	return store.QueryRecord{
		Query: query,
		Responses: []store.RankedResult{
			{Document: errorResultText, Sentiment: errorSentiment, Distance: errorDistance},
		},
		Summary:   &summary,
		CreatedAt: time.Now(),
	}
}
