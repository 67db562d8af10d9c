package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Operation
// route names match the original tool names so existing orchestrator clients
// keep working unchanged.
func RegisterRoutes(e *echo.Echo, ops *OperationsHandler, cat *CatalogHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	gw := ops.gateway

	// Raw passthrough.
	e.POST("/run_api", operation(ops, "run_api", gw.Forward))

	// Projects.
	e.POST("/create_project", operation(ops, "create_project", gw.CreateProject))
	e.POST("/view_project", operation(ops, "view_project", gw.ViewProject))
	e.POST("/list_projects", operation(ops, "list_projects", gw.ListProjects))
	e.POST("/update_project", operation(ops, "update_project", gw.UpdateProject))
	e.POST("/view_project_status", operation(ops, "view_project_status", gw.ViewProjectStatus))
	e.POST("/get_project_work_packages", operation(ops, "get_project_work_packages", gw.ProjectWorkPackages))
	e.POST("/get_project_available_assignees", operation(ops, "get_project_available_assignees", gw.ProjectAvailableAssignees))
	e.POST("/list_statuses", operation(ops, "list_statuses", gw.ListStatuses))

	// Work packages.
	e.POST("/view_work_package", operation(ops, "view_work_package", gw.ViewWorkPackage))
	e.POST("/create_work_package", operation(ops, "create_work_package", gw.CreateWorkPackage))
	e.POST("/list_work_packages", operation(ops, "list_work_packages", gw.ListWorkPackages))
	e.POST("/update_work_package", operation(ops, "update_work_package", gw.UpdateWorkPackage))
	e.POST("/comment_work_package", operation(ops, "comment_work_package", gw.CommentWorkPackage))
	e.POST("/list_work_package_activities", operation(ops, "list_work_package_activities", gw.WorkPackageActivities))
	e.POST("/get_work_package_available_assignees", operation(ops, "get_work_package_available_assignees", gw.WorkPackageAvailableAssignees))
	e.POST("/get_work_package_available_watchers", operation(ops, "get_work_package_available_watchers", gw.WorkPackageAvailableWatchers))
	e.POST("/list_work_package_watchers", operation(ops, "list_work_package_watchers", gw.ListWatchers))
	e.POST("/add_work_package_watcher", operation(ops, "add_work_package_watcher", gw.AddWatcher))
	e.POST("/remove_work_package_watcher", operation(ops, "remove_work_package_watcher", gw.RemoveWatcher))

	// Activities.
	e.POST("/view_activity", operation(ops, "view_activity", gw.ViewActivity))
	e.POST("/update_activity", operation(ops, "update_activity", gw.UpdateActivity))

	// Attachments.
	e.POST("/list_work_package_attachments", operation(ops, "list_work_package_attachments", gw.ListWorkPackageAttachments))
	e.POST("/create_work_package_attachment", operation(ops, "create_work_package_attachment", gw.AttachToWorkPackage))
	e.POST("/create_attachment", operation(ops, "create_attachment", gw.UploadAttachment))
	e.POST("/view_attachment", operation(ops, "view_attachment", gw.ViewAttachment))
	e.POST("/delete_attachment", operation(ops, "delete_attachment", gw.DeleteAttachment))

	// Custom actions.
	e.POST("/get_custom_action", operation(ops, "get_custom_action", gw.GetCustomAction))
	e.POST("/execute_custom_action", operation(ops, "execute_custom_action", gw.ExecuteCustomAction))

	// File links.
	e.POST("/get_work_package_file_links", operation(ops, "get_work_package_file_links", gw.WorkPackageFileLinks))
	e.POST("/get_file_link", operation(ops, "get_file_link", gw.GetFileLink))

	// Groups, users, notifications.
	e.POST("/list_groups", operation(ops, "list_groups", gw.ListGroups))
	e.POST("/list_users", operation(ops, "list_users", gw.ListUsers))
	e.POST("/get_notification_collection", operation(ops, "get_notification_collection", gw.Notifications))
	e.POST("/get_notification_detail", operation(ops, "get_notification_detail", gw.NotificationDetail))

	// Endpoint catalog.
	e.POST("/query_api", cat.Search)
}
