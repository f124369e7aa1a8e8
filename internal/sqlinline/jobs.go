package sqlinline

const QInsertGenerationJob = `--sql 1cf592dd-654e-4e15-a8ee-118240701a6a
insert into generation_jobs (
    id, requester_id, status, request_json, result_json, error_json, metadata,
    retry_count, created_at, started_at, completed_at
)
values ($1::uuid, $2::text, $3::text, $4::jsonb, $5::jsonb, $6::jsonb, $7::jsonb, $8::int, $9, $10, $11);
`

// QUpdateGenerationJob writes every mutable column. Moving a job back to PENDING
// drops its claim so a worker can pick it up again.
const QUpdateGenerationJob = `--sql 547d0f53-fb66-4cdd-92a4-4606d0e5a6fa
update generation_jobs
set status       = $2::text,
    result_json  = $3::jsonb,
    error_json   = $4::jsonb,
    metadata     = $5::jsonb,
    retry_count  = $6::int,
    started_at   = $7,
    completed_at = $8,
    claimed_at   = case when $2::text = 'PENDING' then null else claimed_at end,
    updated_at   = now()
where id = $1::uuid;
`

// QStartGenerationJob is the PENDING to PROCESSING compare-and-set. Zero rows means
// another worker started the job first.
const QStartGenerationJob = `--sql 2d7749e8-1a9d-4638-b7b5-d31ebfbc8b14
update generation_jobs
set status     = $2::text,
    metadata   = $3::jsonb,
    started_at = $4,
    claimed_at = coalesce(claimed_at, now()),
    updated_at = now()
where id = $1::uuid and status = 'PENDING';
`

const QSelectGenerationJob = `--sql 7495d705-d419-4b3b-a31c-14ecab197f95
select id::text, requester_id, status, request_json, result_json, error_json, metadata,
       retry_count, created_at, started_at, completed_at
from generation_jobs
where id = $1::uuid;
`
