// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of long-running pipeline
// stages like CV scoring and transcript analysis, ensuring they don't block
// HTTP request handling and can recover from application restarts.
package task
