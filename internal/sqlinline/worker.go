package sqlinline

// QWorkerClaimJobs marks up to $1 unclaimed PENDING jobs as claimed, oldest first.
// Concurrent workers skip rows another transaction has locked.
const QWorkerClaimJobs = `--sql 034c53fb-ccf6-43ea-bcc9-3359970ff03e
with next_jobs as (
    select id
    from generation_jobs
    where status = 'PENDING' and claimed_at is null
    order by created_at asc
    for update skip locked
    limit $1
),
claimed as (
    update generation_jobs j
    set claimed_at = now(), updated_at = now()
    from next_jobs n
    where j.id = n.id
    returning j.id, j.requester_id, j.status, j.request_json, j.result_json, j.error_json,
              j.metadata, j.retry_count, j.created_at, j.started_at, j.completed_at
)
select id::text, requester_id, status, request_json, result_json, error_json, metadata,
       retry_count, created_at, started_at, completed_at
from claimed
order by created_at asc;
`
