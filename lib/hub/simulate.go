package hub

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"mediahub/internal/entity"
	"mediahub/internal/query"
	"mediahub/internal/transport"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// action posts an account action and checks the success flag of its answer.
func (c *Client) action(ctx context.Context, name string, form url.Values) (map[string]any, error) {
	token, err := c.grantedToken(ctx)
	if err != nil {
		return nil, err
	}
	form.Set("token", token)

	res, err := c.http.Call(ctx, transport.Post(name, form))
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	err = res.JSON(&payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if success, ok := payload["success"]; ok && !toBool(success) {
		return nil, &ActionFailed{Action: name, Message: toString(payload["message"])}
	}
	return payload, nil
}

// Simulate returns the listing entry of the video, which carries data the
// video page does not expose (markers, preview).
//
// A video read from a listing already has its entry. Otherwise the entry is
// obtained by adding the video to a temporary private playlist of the logged
// account and reading it back, so simulation must be enabled with
// AllowSimulation first.
func (v *Video) Simulate(ctx context.Context) (query.RawItem, error) {
	if v.listing != nil {
		return *v.listing, nil
	}
	if !v.AllowSimulation {
		return query.RawItem{}, &SimulationDisabled{Key: v.key}
	}

	ctx, span := tracer.Start(ctx, "Video.Simulate", trace.WithAttributes(
		attribute.String("key", v.key),
	))
	defer span.End()

	item, err := v.simulate(ctx)
	if err != nil {
		v.client.tel.ReportWarning(report_client_simulate, err, v.key)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to simulate query")
		return query.RawItem{}, err
	}
	v.listing = &item
	return item, nil
}

func (v *Video) simulate(ctx context.Context) (query.RawItem, error) {
	c := v.client

	id, err := v.entity.Fetch(ctx, entity.Field("video_id"))
	if err != nil {
		return query.RawItem{}, err
	}
	if id == nil {
		return query.RawItem{}, fmt.Errorf("%s: %w: video_id", v, entity.ErrFieldMissing)
	}

	suffix, err := random.String(8)
	if err != nil {
		return query.RawItem{}, err
	}
	name := "temp-" + suffix
	c.tel.ReportDebug("creating temporary playlist", name)
	created, err := c.action(ctx, "playlist/create", url.Values{
		"title":       {name},
		"tags":        {`["temp"]`},
		"description": {""},
		"status":      {"private"},
	})
	if err != nil {
		return query.RawItem{}, err
	}
	playlist := toString(created["id"])
	if playlist == "" {
		return query.RawItem{}, &ActionFailed{Action: "playlist/create", Message: "no playlist id returned"}
	}

	defer func() {
		_, err := c.action(context.WithoutCancel(ctx), "playlist/delete", url.Values{
			"pid":    {playlist},
			"action": {"delete"},
		})
		if err != nil {
			c.tel.ReportWarning(report_client_simulate, err, "delete temporary playlist", playlist)
		}
	}()

	_, err = c.action(ctx, "playlist/video_add", url.Values{
		"pid": {playlist},
		"vid": {toString(id)},
	})
	if err != nil {
		return query.RawItem{}, err
	}

	listing := query.New(
		query.URLSource{Fetcher: c.http, Template: "playlist/" + playlist},
		query.MarkupListing{},
		func(item query.RawItem) (query.RawItem, error) { return item, nil },
	)
	items, err := listing.Page(ctx, 0)
	if errors.Is(err, query.ErrEndOfSequence) || (err == nil && len(items) == 0) {
		return query.RawItem{}, &ActionFailed{Action: "playlist/" + playlist, Message: "video not listed"}
	}
	if err != nil {
		return query.RawItem{}, err
	}
	return items[0], nil
}
