package endpoints

import (
	"github.com/jackzampolin/kbase/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Knowledge base endpoints
		&CreateKnowledgeBaseEndpoint{},
		&ListKnowledgeBasesEndpoint{},
		&GetKnowledgeBaseEndpoint{},
		&UpdateKnowledgeBaseEndpoint{},
		&DeleteKnowledgeBaseEndpoint{},
		&UploadDocumentEndpoint{},
		&ListDocumentsEndpoint{},

		// Document endpoints
		&GetDocumentEndpoint{},
		&UpdateDocumentEndpoint{},
		&DeleteDocumentEndpoint{},
		&ProcessDocumentEndpoint{},
		&TerminateDocumentEndpoint{},
		&ListChunksEndpoint{},
		&PreviewEndpoint{},
		&DownloadEndpoint{},

		// Worker callback
		&ParseProgressEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}
