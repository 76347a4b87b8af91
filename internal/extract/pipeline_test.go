package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/content"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/inference"
	"github.com/farithjhg/agentic-ai-scraper-crawler/internal/logger"
)

// fakeInferencer returns queued responses in order; an entry with a
// non-nil err fails that call.
type fakeInferencer struct {
	responses []fakeResponse
	calls     int
	lastReq   inference.Request
}

type fakeResponse struct {
	payload string
	err     error
}

func (f *fakeInferencer) Infer(_ context.Context, req inference.Request) (string, error) {
	f.lastReq = req
	if f.calls >= len(f.responses) {
		return "", errors.New("no more responses queued")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp.payload, resp.err
}

func newTestPipeline(inf inference.Inferencer) *Pipeline {
	return NewPipeline(inf, logger.NewNoOp(), PipelineOptions{
		RetryBackoff: time.Millisecond,
	})
}

func testPage(raw string) *content.Page {
	return &content.Page{
		URL:        "https://example.com/items",
		RawContent: raw,
		StatusOK:   true,
	}
}

func TestExtractArticle(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"title":"Go 1.25 released","author":"rob","content":"The Go team announced..."}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("some article text"), content.TypeArticle, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Go 1.25 released", records[0].Fields["title"])
	assert.Equal(t, "https://example.com/items", records[0].SourceURL)
	assert.Empty(t, records[0].LinkField)
}

func TestExtractRetriesOnce(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{err: errors.New("rate limited")},
		{payload: `[{"name":"Widget"}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, inf.calls)
}

func TestExtractFailsAfterRetry(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{err: errors.New("overloaded")},
		{err: errors.New("overloaded")},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	assert.Nil(t, records)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "https://example.com/items", failure.URL)
	assert.Equal(t, 2, inf.calls)
}

func TestExtractNoRetryOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inf := &fakeInferencer{responses: []fakeResponse{
		{err: context.Canceled},
	}}
	p := newTestPipeline(inf)

	cancel()
	_, err := p.Extract(ctx, testPage("widget page"), content.TypeProduct, nil, "")
	require.Error(t, err)
	assert.Equal(t, 1, inf.calls)
}

func TestExtractEmptyContentSkipsInference(t *testing.T) {
	inf := &fakeInferencer{}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("   \n\t "), content.TypeArticle, nil, "")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, inf.calls)
}

func TestExtractStripsCodeFences(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: "```json\n[{\"name\":\"Widget\"}]\n```"},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestExtractSingleObjectPayload(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `{"name":"Widget","price":"9.99"}`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestExtractMalformedPayload(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: "I could not find any structured data on this page."},
	}}
	p := newTestPipeline(inf)

	_, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	var failure *Failure
	require.ErrorAs(t, err, &failure)
}

func TestExtractCoercesFieldTypes(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"name":"Widget","rating":"4.5","reviews":120,"images":"a.jpg"}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	fields := records[0].Fields
	assert.Equal(t, 4.5, fields["rating"])
	assert.Equal(t, float64(120), fields["reviews"])
	assert.Equal(t, []any{"a.jpg"}, fields["images"])
}

func TestExtractDropsMismatchedOptionalField(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"name":"Widget","rating":{"stars":5}}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, present := records[0].Fields["rating"]
	assert.False(t, present)
}

func TestExtractDropsRecordMissingRequired(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"price":"9.99"},{"name":"Widget"}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Widget", records[0].Fields["name"])
}

func TestExtractValidityRules(t *testing.T) {
	tests := []struct {
		name    string
		ct      content.Type
		payload string
		want    int
	}{
		{
			name:    "profile with only email is valid",
			ct:      content.TypeProfile,
			payload: `[{"email":"a@b.example"}]`,
			want:    1,
		},
		{
			name:    "profile with nothing meaningful is dropped",
			ct:      content.TypeProfile,
			payload: `[{"address":""}]`,
			want:    0,
		},
		{
			name:    "generic with title is valid",
			ct:      content.TypeUnknown,
			payload: `[{"title":"Hello"}]`,
			want:    1,
		},
		{
			name:    "generic with empty title is dropped",
			ct:      content.TypeUnknown,
			payload: `[{"title":"  "}]`,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inf := &fakeInferencer{responses: []fakeResponse{{payload: tt.payload}}}
			p := newTestPipeline(inf)

			records, err := p.Extract(context.Background(), testPage("page text"), tt.ct, nil, "")
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestExtractCustomSchemaSkipsTypeValidity(t *testing.T) {
	custom := &Schema{
		Name: "job",
		Fields: []Field{
			{Name: "company", Type: FieldString, Required: true},
			{Name: "url", Type: FieldString},
		},
		LinkField: "url",
	}
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"company":"Acme","url":"https://acme.example/jobs/1"}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("jobs page"), content.TypeArticle, custom, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "url", records[0].LinkField)
	assert.Equal(t, []string{"https://acme.example/jobs/1"}, records[0].Links())
}

func TestExtractDropsErrorMarker(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"name":"Widget","error":false}]`},
	}}
	p := newTestPipeline(inf)

	records, err := p.Extract(context.Background(), testPage("widget page"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	_, present := records[0].Fields["error"]
	assert.False(t, present)
}

func TestExtractTruncatesPrompt(t *testing.T) {
	inf := &fakeInferencer{responses: []fakeResponse{
		{payload: `[{"name":"Widget"}]`},
	}}
	p := NewPipeline(inf, logger.NewNoOp(), PipelineOptions{
		MaxPromptChars: 10,
		RetryBackoff:   time.Millisecond,
	})

	_, err := p.Extract(context.Background(), testPage("0123456789extra"), content.TypeProduct, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", inf.lastReq.Prompt)
}

func TestNoResults(t *testing.T) {
	assert.True(t, NoResults("Sorry, no results found for your query."))
	assert.True(t, NoResults("0 RESULTS"))
	assert.False(t, NoResults("Showing 24 items"))
}
