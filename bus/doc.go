// Package bus implements the fan-out notification channel carrying agent
// progress events to external observers. The bus is observational only: the
// pipeline's control flow never reads events back.
package bus
