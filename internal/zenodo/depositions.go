package zenodo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

type metadataBody struct {
	Metadata zs.Metadata `json:"metadata"`
}

// Lookup searches depositions with query.
func (c *Client) Lookup(ctx context.Context, query string) (*zs.Deposition, error) {
	body, status, err := c.do(ctx, call{
		method: http.MethodGet,
		url:    c.apiRoot + "/deposit/depositions",
		query:  url.Values{"q": {query}},
		size:   -1,
	})
	if err != nil {
		return nil, fmt.Errorf("searching depositions: %w", err)
	}
	if status != http.StatusOK {
		return nil, remoteError("search depositions", zs.ErrRemote, status, body)
	}

	var deps []*zs.Deposition
	if err := json.Unmarshal(body, &deps); err != nil {
		return nil, fmt.Errorf("decoding search result: %w", err)
	}

	switch len(deps) {
	case 0:
		return nil, nil
	case 1:
		return deps[0], nil
	default:
		return nil, &zs.AmbiguousResultError{Query: query, Count: len(deps)}
	}
}

// Create opens a new draft deposition.
func (c *Client) Create(ctx context.Context, md zs.Metadata) (*zs.Deposition, error) {
	md = md.Clone()
	if md.Version == "" {
		md.Version = zs.DefaultVersion
	}

	body, status, err := c.doJSON(ctx, http.MethodPost, c.apiRoot+"/deposit/depositions", metadataBody{Metadata: md})
	if err != nil {
		return nil, fmt.Errorf("creating deposition: %w", err)
	}
	if status != http.StatusCreated {
		return nil, remoteError("create deposition", zs.ErrCreation, status, body)
	}
	return decodeDeposition(body)
}

// UpdateMetadata replaces the metadata of a draft.
func (c *Client) UpdateMetadata(ctx context.Context, dep *zs.Deposition, md zs.Metadata) (*zs.Deposition, error) {
	body, status, err := c.doJSON(ctx, http.MethodPut, dep.Links.Self, metadataBody{Metadata: md})
	if err != nil {
		return nil, fmt.Errorf("updating deposition %d: %w", dep.ID, err)
	}
	if status != http.StatusOK {
		return nil, remoteError("update deposition", zs.ErrUpdate, status, body)
	}
	return decodeDeposition(body)
}

// NewVersion returns an editable draft in the lineage of conceptDOI.
func (c *Client) NewVersion(ctx context.Context, conceptDOI string, version string) (*zs.Deposition, error) {
	query := zs.ConceptQuery(conceptDOI)
	current, err := c.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &zs.NotFoundError{Query: query}
	}
	if current.IsDraft() {
		return current, nil
	}

	body, status, err := c.do(ctx, call{
		method: http.MethodPost,
		url:    current.Links.Self + "/actions/newversion",
		size:   -1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating new version of %s: %w", conceptDOI, err)
	}
	if status != http.StatusCreated {
		return nil, remoteError("new version", zs.ErrNewVersion, status, body)
	}

	// The response is the previous version; the draft is found by concept.
	previous, err := decodeDeposition(body)
	if err != nil {
		return nil, err
	}
	md, err := NextVersionMetadata(previous.Metadata, version)
	if err != nil {
		return nil, err
	}

	draft, err := c.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, &zs.NotFoundError{Query: query}
	}
	if !draft.IsDraft() && previous.Links.LatestDraft != "" {
		c.logger.Debug("search returned published version, following latest_draft", "concept", conceptDOI)
		if draft, err = c.get(ctx, previous.Links.LatestDraft); err != nil {
			return nil, err
		}
	}

	return c.UpdateMetadata(ctx, draft, md)
}

// Publish publishes a draft.
func (c *Client) Publish(ctx context.Context, dep *zs.Deposition) (*zs.Deposition, error) {
	if dep.Submitted {
		return dep, nil
	}

	body, status, err := c.do(ctx, call{method: http.MethodPost, url: dep.Links.Publish, size: -1})
	if err != nil {
		return nil, fmt.Errorf("publishing deposition %d: %w", dep.ID, err)
	}
	if status != http.StatusAccepted {
		return nil, remoteError("publish deposition", zs.ErrPublish, status, body)
	}
	return decodeDeposition(body)
}

// get fetches a deposition by its self link.
func (c *Client) get(ctx context.Context, rawURL string) (*zs.Deposition, error) {
	body, status, err := c.do(ctx, call{method: http.MethodGet, url: rawURL, size: -1})
	if err != nil {
		return nil, fmt.Errorf("fetching deposition: %w", err)
	}
	if status != http.StatusOK {
		return nil, remoteError("get deposition", zs.ErrRemote, status, body)
	}
	return decodeDeposition(body)
}

func decodeDeposition(body []byte) (*zs.Deposition, error) {
	var dep zs.Deposition
	if err := json.Unmarshal(body, &dep); err != nil {
		return nil, fmt.Errorf("decoding deposition: %w", err)
	}
	return &dep, nil
}
