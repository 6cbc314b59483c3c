// Package docs provides generated OpenAPI documentation.
//
// kbase API
//
//	@title			kbase API
//	@version		1.0
//	@description	Knowledge base ingestion API: upload documents, drive their chunking lifecycle, and page through chunks.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/kbase
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/kbase/serve.go -o ./swagger --parseDependency --parseInternal
