package main

import (
	"errors"
	"strings"

	"github.com/apex/log"
	"github.com/pb33f/libopenapi"
)

var errModelNotBuilt = errors.New("failed to build openapi model")

// Description is what libopenapi could tell about a fetched document.
type Description struct {
	SpecVersion string
	Title       string
	Version     string
	PathCount   int
}

// describeDocument builds a typed model of body. It fails for anything that
// is not an OpenAPI 3 or Swagger 2 document.
func describeDocument(body []byte) (*Description, error) {
	document, err := libopenapi.NewDocument(body)
	if err != nil {
		return nil, err
	}

	desc := &Description{SpecVersion: document.GetVersion()}

	// Swagger 2.0
	if strings.HasPrefix(desc.SpecVersion, "2") {
		model, _ := document.BuildV2Model()
		if model == nil {
			return nil, errModelNotBuilt
		}
		if model.Model.Info != nil {
			desc.Title = model.Model.Info.Title
			desc.Version = model.Model.Info.Version
		}
		if model.Model.Paths != nil {
			for pair := model.Model.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
				desc.PathCount++
			}
		}
		return desc, nil
	}

	model, _ := document.BuildV3Model()
	if model == nil {
		return nil, errModelNotBuilt
	}
	if model.Model.Info != nil {
		desc.Title = model.Model.Info.Title
		desc.Version = model.Model.Info.Version
	}
	if model.Model.Paths != nil {
		for pair := model.Model.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
			desc.PathCount++
		}
	}
	return desc, nil
}

// describe logs the document summary. It never affects the listing.
func describe(logger *log.Entry, body []byte) {
	desc, err := describeDocument(body)
	if err != nil {
		logger.WithError(err).Debug("not a recognized openapi document")
		return
	}
	logger.WithFields(log.Fields{
		"spec":    desc.SpecVersion,
		"title":   desc.Title,
		"version": desc.Version,
		"paths":   desc.PathCount,
	}).Debug("described openapi document")
}
