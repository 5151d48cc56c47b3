// Package promquery enriches observations with cluster usage data from an
// optional Prometheus server. The primary path is the /api/v1/query HTTP
// API; memory gauges can also be pulled through /federate text exposition
// when the query API is not usable.
package promquery
