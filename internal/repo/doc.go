// Package repo хранит историю запусков в PostgreSQL.
//
// Таблицы jobs, steps и tasks заполняются Recorder'ом из событий
// планировщика и читаются API (evalflow-api) для команд evalflow job.
package repo
