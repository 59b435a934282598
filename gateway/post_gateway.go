package gateway

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/models"
)

const postsPath = "/api/publicaciones"

// PostGateway is the remote posts resource.
type PostGateway interface {
	List(ctx context.Context) ([]models.Post, error)
	// Create sends JSON, or multipart when image is not nil.
	Create(ctx context.Context, payload models.CreatePostPayload, image *models.ImageFile) (*models.Post, error)
	Update(ctx context.Context, postID string, req models.UpdatePostRequest) error
	Delete(ctx context.Context, postID string) error
	React(ctx context.Context, postID string, req models.ReactionRequest) (*models.ReactionState, error)
	// UploadImage attaches an image to an existing post and returns its URL.
	UploadImage(ctx context.Context, postID string, image *models.ImageFile) (string, error)
	Report(ctx context.Context, postID string, req models.ReportRequest) error
}

type postGateway struct {
	c   *client
	cfg config.RemoteConfig
}

// NewPostGateway returns a PostGateway for cfg.BaseURL. httpc may be nil.
func NewPostGateway(cfg config.RemoteConfig, httpc *http.Client, metrics *Metrics) PostGateway {
	return &postGateway{
		c:   newClient(cfg.BaseURL, httpc, metrics),
		cfg: cfg,
	}
}

func postPath(postID string, suffix string) string {
	return postsPath + "/" + url.PathEscape(postID) + suffix
}

func (g *postGateway) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := g.c.do(ctx, request{
		op:      "list",
		method:  http.MethodGet,
		path:    postsPath,
		timeout: g.cfg.ListTimeout,
	}, func(body []byte) error {
		decoded, skipped, err := models.DecodePostList(body)
		if err != nil {
			return err
		}
		for _, e := range skipped {
			log.Printf("[gateway] list: skipping record: %v", e)
		}
		posts = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (g *postGateway) Create(ctx context.Context, payload models.CreatePostPayload, image *models.ImageFile) (*models.Post, error) {
	req := request{
		op:      "create",
		method:  http.MethodPost,
		path:    postsPath,
		timeout: g.cfg.CreateTimeout,
	}

	if image != nil {
		body, contentType, err := multipartPost(payload, image)
		if err != nil {
			return nil, fmt.Errorf("%w: create: %v", ErrUnavailable, err)
		}
		req.op = "create_multipart"
		req.timeout = g.cfg.MultipartTimeout
		req.body = body
		req.contentType = contentType
	} else {
		body, err := jsonBody(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: create: %v", ErrUnavailable, err)
		}
		req.body = body
		req.contentType = "application/json"
	}

	var created *models.Post
	err := g.c.do(ctx, req, func(body []byte) error {
		p, err := models.DecodeCreated(body, payload)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (g *postGateway) Update(ctx context.Context, postID string, upd models.UpdatePostRequest) error {
	body, err := jsonBody(upd)
	if err != nil {
		return fmt.Errorf("%w: update: %v", ErrUnavailable, err)
	}
	return g.c.do(ctx, request{
		op:          "update",
		method:      http.MethodPatch,
		path:        postPath(postID, ""),
		timeout:     g.cfg.UpdateTimeout,
		body:        body,
		contentType: "application/json",
	}, nil)
}

func (g *postGateway) Delete(ctx context.Context, postID string) error {
	return g.c.do(ctx, request{
		op:      "delete",
		method:  http.MethodDelete,
		path:    postPath(postID, ""),
		timeout: g.cfg.DeleteTimeout,
	}, nil)
}

func (g *postGateway) React(ctx context.Context, postID string, react models.ReactionRequest) (*models.ReactionState, error) {
	body, err := jsonBody(react)
	if err != nil {
		return nil, fmt.Errorf("%w: react: %v", ErrUnavailable, err)
	}

	var state *models.ReactionState
	err = g.c.do(ctx, request{
		op:          "react",
		method:      http.MethodPost,
		path:        postPath(postID, "/reaction"),
		timeout:     g.cfg.ReactTimeout,
		body:        body,
		contentType: "application/json",
	}, func(body []byte) error {
		st, err := models.DecodeReactionState(body)
		if err != nil {
			return err
		}
		state = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (g *postGateway) UploadImage(ctx context.Context, postID string, image *models.ImageFile) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeImagePart(mw, image); err != nil {
		return "", fmt.Errorf("%w: upload_image: %v", ErrUnavailable, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: upload_image: %v", ErrUnavailable, err)
	}

	var imageURL string
	err := g.c.do(ctx, request{
		op:          "upload_image",
		method:      http.MethodPost,
		path:        postPath(postID, "/image"),
		timeout:     g.cfg.UploadTimeout,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, func(body []byte) error {
		u, err := models.DecodeImageURL(body)
		if err != nil {
			return err
		}
		imageURL = u
		return nil
	})
	if err != nil {
		return "", err
	}
	return imageURL, nil
}

func (g *postGateway) Report(ctx context.Context, postID string, rep models.ReportRequest) error {
	body, err := jsonBody(rep)
	if err != nil {
		return fmt.Errorf("%w: report: %v", ErrUnavailable, err)
	}
	return g.c.do(ctx, request{
		op:          "report",
		method:      http.MethodPost,
		path:        postPath(postID, "/report"),
		timeout:     g.cfg.ReportTimeout,
		body:        body,
		contentType: "application/json",
	}, nil)
}

// multipartPost encodes every payload field as a form field plus the
// image under "image".
func multipartPost(payload models.CreatePostPayload, image *models.ImageFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"author", payload.Author},
		{"authorId", payload.AuthorID},
		{"authorAvatar", payload.AuthorAvatar},
		{"content", payload.Content},
		{"category", payload.Category},
		{"ts", strconv.FormatInt(payload.TS, 10)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := writeImagePart(mw, image); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeImagePart(mw *multipart.Writer, image *models.ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
	h.Set("Content-Type", image.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(image.Data)
	return err
}
