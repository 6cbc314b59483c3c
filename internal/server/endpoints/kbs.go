package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/kbase/internal/api"
	"github.com/jackzampolin/kbase/internal/documents"
	"github.com/jackzampolin/kbase/internal/schema"
	"github.com/jackzampolin/kbase/internal/svcctx"
	"github.com/jackzampolin/kbase/internal/types"
)

// kbGroup places knowledge base commands under "kbase api kbs".
type kbGroup struct{}

func (kbGroup) Group() (string, string) { return "kbs", "Manage knowledge bases" }

// kbFlags binds the knowledge base fields shared by create and update.
type kbFlags struct {
	name, description string
	chunkSize         int
	overlap           int
	autoProcess       bool
}

func (f *kbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Knowledge base name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "Default chunk size for documents")
	cmd.Flags().IntVar(&f.overlap, "overlap", 0, "Default chunk overlap for documents")
	cmd.Flags().BoolVar(&f.autoProcess, "auto-process", false, "Process documents as soon as they are uploaded")
}

// request sets only the flags the user changed.
func (f *kbFlags) request(cmd *cobra.Command) api.KnowledgeBaseRequest {
	var req api.KnowledgeBaseRequest
	if cmd.Flags().Changed("name") {
		req.Name = &f.name
	}
	if cmd.Flags().Changed("description") {
		req.Description = &f.description
	}
	if cmd.Flags().Changed("chunk-size") {
		req.ChunkSize = &f.chunkSize
	}
	if cmd.Flags().Changed("overlap") {
		req.Overlap = &f.overlap
	}
	if cmd.Flags().Changed("auto-process") {
		req.AutoProcessOnUpload = &f.autoProcess
	}
	return req
}

// CreateKnowledgeBaseEndpoint handles POST /api/kbs.
type CreateKnowledgeBaseEndpoint struct{ kbGroup }

func (e *CreateKnowledgeBaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/kbs", e.handler
}

func (e *CreateKnowledgeBaseEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a knowledge base
//	@Description	Create a knowledge base with default chunking settings for its documents
//	@Tags			kbs
//	@Accept			json
//	@Produce		json
//	@Param			request	body		api.KnowledgeBaseRequest	true	"Knowledge base"
//	@Success		201		{object}	types.KnowledgeBase
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/kbs [post]
func (e *CreateKnowledgeBaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req api.KnowledgeBaseRequest
	if !decodeBody(w, r, schema.KnowledgeBaseCreate, &req) {
		return
	}

	kb := &types.KnowledgeBase{}
	if req.Name != nil {
		kb.Name = *req.Name
	}
	if req.Description != nil {
		kb.Description = *req.Description
	}
	if req.ChunkSize != nil {
		kb.ChunkSize = *req.ChunkSize
	}
	if req.Overlap != nil {
		kb.Overlap = *req.Overlap
	}
	if req.AutoProcessOnUpload != nil {
		kb.AutoProcessOnUpload = *req.AutoProcessOnUpload
	}

	created, err := svcctx.DocumentsFrom(r.Context()).CreateKnowledgeBase(r.Context(), kb)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (e *CreateKnowledgeBaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags kbFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			kb, err := client.CreateKnowledgeBase(cmd.Context(), flags.request(cmd))
			if err != nil {
				return err
			}
			return api.Output(kb)
		},
	}
	flags.register(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

// ListKnowledgeBasesEndpoint handles GET /api/kbs.
type ListKnowledgeBasesEndpoint struct{ kbGroup }

func (e *ListKnowledgeBasesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/kbs", e.handler
}

func (e *ListKnowledgeBasesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List knowledge bases
//	@Tags			kbs
//	@Produce		json
//	@Success		200	{array}		types.KnowledgeBase
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/kbs [get]
func (e *ListKnowledgeBasesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	kbs, err := svcctx.DocumentsFrom(r.Context()).ListKnowledgeBases(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kbs)
}

func (e *ListKnowledgeBasesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List knowledge bases",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			kbs, err := client.ListKnowledgeBases(cmd.Context())
			if err != nil {
				return err
			}
			return api.Output(kbs)
		},
	}
}

// GetKnowledgeBaseEndpoint handles GET /api/kbs/{id}.
type GetKnowledgeBaseEndpoint struct{ kbGroup }

func (e *GetKnowledgeBaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/kbs/{id}", e.handler
}

func (e *GetKnowledgeBaseEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a knowledge base
//	@Tags			kbs
//	@Produce		json
//	@Param			id	path		string	true	"Knowledge base ID"
//	@Success		200	{object}	types.KnowledgeBase
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/kbs/{id} [get]
func (e *GetKnowledgeBaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	kb, err := svcctx.DocumentsFrom(r.Context()).GetKnowledgeBase(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kb)
}

func (e *GetKnowledgeBaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a knowledge base by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			kb, err := client.GetKnowledgeBase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.Output(kb)
		},
	}
}

// UpdateKnowledgeBaseEndpoint handles PUT /api/kbs/{id}.
type UpdateKnowledgeBaseEndpoint struct{ kbGroup }

func (e *UpdateKnowledgeBaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/kbs/{id}", e.handler
}

func (e *UpdateKnowledgeBaseEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update a knowledge base
//	@Description	Update name, description or default chunking. Documents keep their last parsed config until reprocessed.
//	@Tags			kbs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Knowledge base ID"
//	@Param			request	body		api.KnowledgeBaseRequest	true	"Fields to change"
//	@Success		200		{object}	types.KnowledgeBase
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/kbs/{id} [put]
func (e *UpdateKnowledgeBaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var u documents.KnowledgeBaseUpdate
	if !decodeBody(w, r, schema.KnowledgeBaseUpdate, &u) {
		return
	}
	kb, err := svcctx.DocumentsFrom(r.Context()).UpdateKnowledgeBase(r.Context(), r.PathValue("id"), u)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kb)
}

func (e *UpdateKnowledgeBaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	var flags kbFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.request(cmd)
			if req == (api.KnowledgeBaseRequest{}) {
				return fmt.Errorf("nothing to update: set at least one flag")
			}
			client := api.NewClient(getServerURL())
			kb, err := client.UpdateKnowledgeBase(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			return api.Output(kb)
		},
	}
	flags.register(cmd)
	return cmd
}

// DeleteKnowledgeBaseEndpoint handles DELETE /api/kbs/{id}.
type DeleteKnowledgeBaseEndpoint struct{ kbGroup }

func (e *DeleteKnowledgeBaseEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/kbs/{id}", e.handler
}

func (e *DeleteKnowledgeBaseEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete a knowledge base
//	@Description	Refused with 409 while the knowledge base still holds documents
//	@Tags			kbs
//	@Param			id	path	string	true	"Knowledge base ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/kbs/{id} [delete]
func (e *DeleteKnowledgeBaseEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := svcctx.DocumentsFrom(r.Context()).DeleteKnowledgeBase(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteKnowledgeBaseEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an empty knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.DeleteKnowledgeBase(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted knowledge base %s\n", args[0])
			return nil
		},
	}
}
