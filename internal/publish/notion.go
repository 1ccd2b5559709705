package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/dutchbrat/hedgefund-agent/internal/config"
	"github.com/dutchbrat/hedgefund-agent/internal/db"
)

// notionPages is the slice of the Notion API the recorder needs.
// notionapi's client.Page satisfies it; tests stub it.
type notionPages interface {
	Create(ctx context.Context, request *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, request *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// NotionRecorder mirrors published content and briefing runs into
// Notion databases.
type NotionRecorder struct {
	pages      notionPages
	contentDB  notionapi.DatabaseID
	briefingDB notionapi.DatabaseID
	logger     zerolog.Logger
}

// NewNotionRecorder creates a recorder from config
func NewNotionRecorder(cfg config.NotionConfig) (*NotionRecorder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion api key is required")
	}
	if cfg.ContentDatabaseID == "" {
		return nil, fmt.Errorf("notion content database id is required")
	}

	client := notionapi.NewClient(notionapi.Token(cfg.APIKey))

	return &NotionRecorder{
		pages:      client.Page,
		contentDB:  notionapi.DatabaseID(cfg.ContentDatabaseID),
		briefingDB: notionapi.DatabaseID(cfg.BriefingDatabaseID),
		logger:     config.NewLogger("notion"),
	}, nil
}

// EngagementScore weights replies over retweets over likes
func EngagementScore(likes, retweets, replies int) int {
	return likes + 2*retweets + 3*replies
}

// RecordContent creates a page for a published tweet or thread.
// Returns the Notion page ID.
func (r *NotionRecorder) RecordContent(ctx context.Context, rec *db.ContentRecord, sourceURL string) (string, error) {
	date := notionapi.Date(rec.CreatedAt)

	properties := notionapi.Properties{
		"Tweet ID": notionapi.TitleProperty{
			Title: richText(rec.TweetID),
		},
		"Text": notionapi.RichTextProperty{
			RichText: richText(rec.Text),
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Category)},
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.ContentType)},
		},
		"Theme": notionapi.RichTextProperty{
			RichText: richText(rec.Theme),
		},
	}
	if sourceURL != "" {
		properties["Source URL"] = notionapi.URLProperty{URL: sourceURL}
	}

	page, err := r.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: r.contentDB,
		},
		Properties: properties,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create notion content page: %w", err)
	}

	r.logger.Info().
		Str("page_id", string(page.ID)).
		Str("tweet_id", rec.TweetID).
		Msg("Content recorded in Notion")

	return string(page.ID), nil
}

// UpdateEngagement writes the latest engagement numbers onto a content page
func (r *NotionRecorder) UpdateEngagement(ctx context.Context, pageID string, likes, retweets, replies int) error {
	_, err := r.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			"Likes":      notionapi.NumberProperty{Number: float64(likes)},
			"Retweets":   notionapi.NumberProperty{Number: float64(retweets)},
			"Replies":    notionapi.NumberProperty{Number: float64(replies)},
			"Engagement": notionapi.NumberProperty{Number: float64(EngagementScore(likes, retweets, replies))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update notion engagement: %w", err)
	}
	return nil
}

// RecordBriefing creates a page for a briefing run with the summary as
// page body. Returns the Notion page ID.
func (r *NotionRecorder) RecordBriefing(ctx context.Context, slug, title, summary string, sentimentLabel string, ranAt time.Time) (string, error) {
	if r.briefingDB == "" {
		return "", fmt.Errorf("notion briefing database not configured")
	}

	date := notionapi.Date(ranAt)

	page, err := r.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: r.briefingDB,
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Title: richText(title),
			},
			"Slug": notionapi.RichTextProperty{
				RichText: richText(slug),
			},
			"Date": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &date},
			},
			"Sentiment": notionapi.SelectProperty{
				Select: notionapi.Option{Name: sentimentLabel},
			},
		},
		Children: []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: richText(summary),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create notion briefing page: %w", err)
	}

	r.logger.Info().
		Str("page_id", string(page.ID)).
		Str("briefing", slug).
		Msg("Briefing recorded in Notion")

	return string(page.ID), nil
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: content}},
	}
}
