package aiservice

import "context"

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type embedBatchRequest struct {
	Texts []string `json:"texts"`
}

type embedBatchResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns the embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	if err := c.postJSON(ctx, "/embed", embedRequest{Text: text}, &resp); err != nil {
		return nil, err
	}

	return resp.Embedding, nil
}

// EmbedBatch returns one embedding per input text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embedBatchResponse
	if err := c.postJSON(ctx, "/embed/batch", embedBatchRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}

	return resp.Embeddings, nil
}
